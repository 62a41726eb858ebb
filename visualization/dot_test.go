package visualization_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/anggasct/hsm"
	"github.com/anggasct/hsm/visualization"
)

// newPlayerModel builds a media player:
//
//	Idle --start--> Active([Working <-> Paused, with history])
//	Active --stop[guard]--> Check(choice: true -> Idle, false -> Active)
//	Idle --ping--> (internal)
func newPlayerModel(t *testing.T) *hsm.Model {
	t.Helper()
	start := hsm.NewEvent("start")
	stop := hsm.NewEvent("stop")
	pause := hsm.NewEvent("pause")
	resume := hsm.NewEvent("resume")
	ping := hsm.NewEvent("ping")

	b := hsm.NewBuilder()
	working := b.State("Working").ID()
	paused := b.State("Paused").ID()
	playback := b.Region(working, hsm.WithHistory())

	idle := b.State("Idle").ID()
	active := b.State("Active").Regions(playback).ID()
	check := b.Choice("Check", func(*hsm.Event) bool { return true },
		hsm.Transition(nil, idle),
		hsm.Transition(nil, active))

	b.Reactions(working).On(pause, hsm.Transition(nil, paused))
	b.Reactions(paused).On(resume, hsm.Transition(nil, working))
	b.Reactions(idle).
		On(start, hsm.Transition(nil, active)).
		On(ping, hsm.Internal(nil))
	b.Reactions(active).On(stop, hsm.Guarded(func(*hsm.Event) bool { return true }, nil, check))

	model, err := b.Build(b.Region(idle))
	require.NoError(t, err)
	return model
}

func TestDOTGeneration(t *testing.T) {
	generator := visualization.NewDOTGenerator(newPlayerModel(t))

	dot, err := generator.Generate()
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(dot, "digraph StateMachine {\n  rankdir=TB;\n"))
	assert.Contains(t, dot, `subgraph "cluster_region_2" {`)
	assert.Contains(t, dot, `label="region 2";`)
	assert.Contains(t, dot, `subgraph "cluster_region_1" {`)
	assert.Contains(t, dot, `label="Active / region 1 (H)";`)
	assert.Contains(t, dot, `"Idle" [shape=box style="filled" fillcolor=lightgreen label="Idle\n(initial)"];`)
	assert.Contains(t, dot, `"Active" [shape=box style="filled" fillcolor=lavender label="Active\n[1 regions]"];`)
	assert.Contains(t, dot, `"Check" [shape=diamond style="filled" fillcolor=lightyellow label="Check"];`)
	assert.Contains(t, dot, `"Idle" -> "Active" [label="start"];`)
	assert.Contains(t, dot, `"Idle" -> "Idle" [label="ping" style=dashed];`)
	assert.Contains(t, dot, `"Active" -> "Check" [label="stop [guard]"];`)
	assert.Contains(t, dot, `"Check" -> "Idle" [label="[true]"];`)
	assert.Contains(t, dot, `"Check" -> "Active" [label="[false]"];`)
	assert.Contains(t, dot, `"Working" -> "Paused" [label="pause"];`)
	assert.True(t, strings.HasSuffix(dot, "}\n"))
}

func TestDOTGeneration_CustomOptions(t *testing.T) {
	options := visualization.DefaultDOTOptions()
	options.RankDirection = "LR"
	options.ShowGuardMarkers = false
	options.ShowInternal = false
	options.ClusterRegions = false

	dot, err := visualization.NewDOTGenerator(newPlayerModel(t), options).Generate()
	require.NoError(t, err)

	assert.Contains(t, dot, "rankdir=LR;")
	assert.NotContains(t, dot, "subgraph")
	assert.NotContains(t, dot, "[guard]")
	assert.NotContains(t, dot, `"Idle" -> "Idle"`)
	assert.Contains(t, dot, `"Active" -> "Check" [label="stop"];`)
}

func TestDOTGeneration_DuplicateNames(t *testing.T) {
	next := hsm.NewEvent("next")
	b := hsm.NewBuilder()
	first := b.State("Step").ID()
	second := b.State("Step").ID()
	b.Reactions(first).On(next, hsm.Transition(nil, second))
	model, err := b.Build(b.Region(first))
	require.NoError(t, err)

	dot, err := visualization.NewDOTGenerator(model).Generate()
	require.NoError(t, err)

	assert.Contains(t, dot, `"Step#1" -> "Step#2" [label="next"];`)
}

func TestDOTGeneration_NilModel(t *testing.T) {
	_, err := visualization.NewDOTGenerator(nil).Generate()
	assert.Error(t, err)
}

func TestDOTGenerateToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "player.dot")

	require.NoError(t, visualization.NewDOTGenerator(newPlayerModel(t)).GenerateToFile(path))

	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(content), "digraph StateMachine")
}
