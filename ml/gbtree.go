package ml

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// GradientBoosted evaluates a binary:logistic tree ensemble exported with
// XGBoost's JSON dump format.
type GradientBoosted struct {
	baseMargin float64
	trees      [][]boostNode
	maxFeature int
}

// BoosterDump is the on-disk form of a GradientBoosted artifact.
type BoosterDump struct {
	BaseScore    float64    `json:"base_score"`
	Objective    string     `json:"objective"`
	FeatureNames []string   `json:"feature_names,omitempty"`
	Trees        []DumpNode `json:"trees"`
}

// DumpNode mirrors one node of an XGBoost tree dump.
type DumpNode struct {
	NodeID         int        `json:"nodeid"`
	Split          string     `json:"split,omitempty"`
	SplitCondition float64    `json:"split_condition,omitempty"`
	Yes            int        `json:"yes,omitempty"`
	No             int        `json:"no,omitempty"`
	Missing        int        `json:"missing,omitempty"`
	Leaf           *float64   `json:"leaf,omitempty"`
	Children       []DumpNode `json:"children,omitempty"`
}

type boostNode struct {
	leaf      bool
	value     float64
	feature   int
	threshold float32
	yes       int
	no        int
	missing   int
}

const objectiveLogistic = "binary:logistic"

// NewGradientBoosted compiles a dump into an evaluable ensemble.
func NewGradientBoosted(dump BoosterDump) (*GradientBoosted, error) {
	if dump.Objective != "" && dump.Objective != objectiveLogistic {
		return nil, fmt.Errorf("objective %q is not %s", dump.Objective, objectiveLogistic)
	}
	if len(dump.Trees) == 0 {
		return nil, errors.New("booster has no trees")
	}
	baseScore := dump.BaseScore
	if baseScore == 0 {
		baseScore = 0.5
	}
	if baseScore <= 0 || baseScore >= 1 {
		return nil, fmt.Errorf("base_score %v outside (0, 1)", baseScore)
	}

	names := dump.FeatureNames
	if len(names) == 0 {
		names = FeatureNames()
	}
	model := &GradientBoosted{
		baseMargin: math.Log(baseScore / (1 - baseScore)),
		trees:      make([][]boostNode, 0, len(dump.Trees)),
		maxFeature: -1,
	}
	for i, root := range dump.Trees {
		tree, err := model.compileTree(root, names)
		if err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
		model.trees = append(model.trees, tree)
	}
	return model, nil
}

func (g *GradientBoosted) compileTree(root DumpNode, names []string) ([]boostNode, error) {
	byID := make(map[int]DumpNode)
	maxID := -1
	var collect func(node DumpNode) error
	collect = func(node DumpNode) error {
		if node.NodeID < 0 {
			return fmt.Errorf("negative node id %d", node.NodeID)
		}
		if _, dup := byID[node.NodeID]; dup {
			return fmt.Errorf("duplicate node id %d", node.NodeID)
		}
		byID[node.NodeID] = node
		if node.NodeID > maxID {
			maxID = node.NodeID
		}
		for _, child := range node.Children {
			if err := collect(child); err != nil {
				return err
			}
		}
		return nil
	}
	if err := collect(root); err != nil {
		return nil, err
	}
	if root.NodeID != 0 {
		return nil, errors.New("root node id must be 0")
	}

	nodes := make([]boostNode, maxID+1)
	for id, node := range byID {
		if node.Leaf != nil {
			if math.IsNaN(*node.Leaf) || math.IsInf(*node.Leaf, 0) {
				return nil, fmt.Errorf("node %d has non-finite leaf", id)
			}
			nodes[id] = boostNode{leaf: true, value: *node.Leaf}
			continue
		}
		feature, err := resolveFeature(node.Split, names)
		if err != nil {
			return nil, fmt.Errorf("node %d: %w", id, err)
		}
		for _, child := range []int{node.Yes, node.No, node.Missing} {
			if _, ok := byID[child]; !ok || child == id {
				return nil, fmt.Errorf("node %d points at missing child %d", id, child)
			}
		}
		if feature > g.maxFeature {
			g.maxFeature = feature
		}
		nodes[id] = boostNode{
			feature:   feature,
			threshold: float32(node.SplitCondition),
			yes:       node.Yes,
			no:        node.No,
			missing:   node.Missing,
		}
	}
	return nodes, nil
}

func resolveFeature(split string, names []string) (int, error) {
	for i, name := range names {
		if name == split {
			return i, nil
		}
	}
	if strings.HasPrefix(split, "f") {
		if idx, err := strconv.Atoi(split[1:]); err == nil && idx >= 0 {
			return idx, nil
		}
	}
	return 0, fmt.Errorf("unknown split feature %q", split)
}

// Margin is the raw log-odds before the logistic link.
func (g *GradientBoosted) Margin(features []float64) (float64, error) {
	if len(g.trees) == 0 {
		return 0, ErrNotLoaded
	}
	if g.maxFeature >= len(features) {
		return 0, fmt.Errorf("%w: model reads feature %d of %d", ErrLengthMismatch, g.maxFeature, len(features))
	}
	margin := g.baseMargin
	for i, tree := range g.trees {
		leaf, err := walkBoostTree(tree, features)
		if err != nil {
			return 0, fmt.Errorf("tree %d: %w", i, err)
		}
		margin += leaf
	}
	return margin, nil
}

func walkBoostTree(tree []boostNode, features []float64) (float64, error) {
	idx := 0
	for steps := 0; steps <= len(tree); steps++ {
		node := tree[idx]
		if node.leaf {
			return node.value, nil
		}
		// XGBoost holds inputs and cuts as float32
		value := features[node.feature]
		switch {
		case math.IsNaN(value):
			idx = node.missing
		case float32(value) < node.threshold:
			idx = node.yes
		default:
			idx = node.no
		}
	}
	return 0, errors.New("tree walk did not reach a leaf")
}

func (g *GradientBoosted) PredictProba(features []float64) (float64, error) {
	margin, err := g.Margin(features)
	if err != nil {
		return 0, err
	}
	return sigmoid(margin), nil
}

func (g *GradientBoosted) Predict(features []float64) (int, error) {
	probability, err := g.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return labelFor(probability), nil
}

func (g *GradientBoosted) MaxFeatureIndex() int {
	return g.maxFeature
}

func (g *GradientBoosted) Load(path string) error {
	var dump BoosterDump
	if err := readArtifact(path, &dump); err != nil {
		return err
	}
	loaded, err := NewGradientBoosted(dump)
	if err != nil {
		return fmt.Errorf("booster %s: %w", path, err)
	}
	*g = *loaded
	return nil
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
