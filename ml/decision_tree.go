package ml

import (
	"errors"
	"fmt"
	"math"
)

// DecisionTree is a fitted binary tree stored as a flat node array with the
// root at index 0. Leaves carry the positive-class probability.
type DecisionTree struct {
	nodes []TreeNode
}

type TreeNode struct {
	FeatureIdx  int     `json:"feature_idx"`
	Threshold   float64 `json:"threshold"`
	LeftChild   int     `json:"left_child"`
	RightChild  int     `json:"right_child"`
	Probability float64 `json:"probability"`
	IsLeaf      bool    `json:"is_leaf"`
}

// NewDecisionTree wraps already fitted nodes.
func NewDecisionTree(nodes []TreeNode) (*DecisionTree, error) {
	if err := validateNodes(nodes); err != nil {
		return nil, err
	}
	return &DecisionTree{nodes: append([]TreeNode(nil), nodes...)}, nil
}

func (dt *DecisionTree) Predict(features []float64) (int, error) {
	probability, err := dt.PredictProba(features)
	if err != nil {
		return 0, err
	}
	return labelFor(probability), nil
}

func (dt *DecisionTree) PredictProba(features []float64) (float64, error) {
	if len(dt.nodes) == 0 {
		return 0, ErrNotLoaded
	}
	idx := 0
	// a valid tree is acyclic, so a walk never visits more nodes than it has
	for steps := 0; steps <= len(dt.nodes); steps++ {
		node := dt.nodes[idx]
		if node.IsLeaf {
			return node.Probability, nil
		}
		if node.FeatureIdx < 0 || node.FeatureIdx >= len(features) {
			return 0, fmt.Errorf("%w: node %d reads feature %d of %d", ErrLengthMismatch, idx, node.FeatureIdx, len(features))
		}
		if features[node.FeatureIdx] <= node.Threshold {
			idx = node.LeftChild
		} else {
			idx = node.RightChild
		}
		if idx < 0 || idx >= len(dt.nodes) {
			return 0, errors.New("invalid tree state")
		}
	}
	return 0, errors.New("tree walk did not reach a leaf")
}

// MaxFeatureIndex reports the highest feature index any split reads.
func (dt *DecisionTree) MaxFeatureIndex() int {
	max := -1
	for _, node := range dt.nodes {
		if !node.IsLeaf && node.FeatureIdx > max {
			max = node.FeatureIdx
		}
	}
	return max
}

func (dt *DecisionTree) Save(path string) error {
	if len(dt.nodes) == 0 {
		return ErrNotLoaded
	}
	return writeArtifact(path, dt.nodes)
}

func (dt *DecisionTree) Load(path string) error {
	var nodes []TreeNode
	if err := readArtifact(path, &nodes); err != nil {
		return err
	}
	if err := validateNodes(nodes); err != nil {
		return fmt.Errorf("decision tree %s: %w", path, err)
	}
	dt.nodes = nodes
	return nil
}

func validateNodes(nodes []TreeNode) error {
	if len(nodes) == 0 {
		return errors.New("tree has no nodes")
	}
	for i, node := range nodes {
		if node.IsLeaf {
			if math.IsNaN(node.Probability) || node.Probability < 0 || node.Probability > 1 {
				return fmt.Errorf("leaf %d probability %v outside [0, 1]", i, node.Probability)
			}
			continue
		}
		if node.FeatureIdx < 0 {
			return fmt.Errorf("node %d has negative feature index", i)
		}
		if node.LeftChild <= i || node.LeftChild >= len(nodes) || node.RightChild <= i || node.RightChild >= len(nodes) {
			return fmt.Errorf("node %d has out of range children", i)
		}
	}
	return nil
}
