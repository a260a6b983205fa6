package inference

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestWatcherReportsChangedArtifact(t *testing.T) {
	svc, err := Load(writeArtifacts(t))
	require.NoError(t, err)

	watcher, err := NewWatcher(svc.Artifacts(), nil)
	require.NoError(t, err)
	defer watcher.Close()

	changed := make(chan Artifact, 8)
	watcher.OnChange(func(a Artifact, _ fsnotify.Op) {
		changed <- a
	})

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go watcher.Run(ctx)

	classifier := svc.Artifacts()[1]
	require.NoError(t, os.WriteFile(classifier.Path, []byte(`{}`), 0o600))

	select {
	case a := <-changed:
		require.Equal(t, "classifier", a.Name)
	case <-time.After(5 * time.Second):
		t.Fatal("no change reported")
	}

	// the loaded model is untouched
	_, err = svc.PredictValues(context.Background(), minVector)
	require.NoError(t, err)
}
