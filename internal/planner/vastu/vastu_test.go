package vastu

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func ruleIDs(rules []Rule) []string {
	ids := make([]string, 0, len(rules))
	for _, r := range rules {
		ids = append(ids, r.ID)
	}
	return ids
}

func TestDefaultCatalog(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Len(t, c.Rules, 11)
	require.Len(t, c.Directions, 8)
	require.Equal(t, "SE", c.Directions["southeast"].Symbol)
}

func TestForRoom(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t,
		[]string{"kitchen-southeast", "stove-southeast", "entrance-north-east", "clutter-free"},
		ruleIDs(c.ForRoom(" Kitchen ")))

	// unknown rooms still get the general rules
	require.Equal(t, []string{"entrance-north-east", "clutter-free"}, ruleIDs(c.ForRoom("garage")))
}

func TestForDirection(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t,
		[]string{"bed-no-mirror-facing", "stove-southeast", "idol-east-west", "clutter-free"},
		ruleIDs(c.ForDirection("EAST")))
}

func TestForCategory(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t,
		[]string{"bedroom-southwest", "kitchen-southeast", "pooja-northeast"},
		ruleIDs(c.ForCategory("room")))
}

func TestForFurniture(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	require.Equal(t, []string{"east", "southeast"}, c.ForFurniture("Dining", "dining room"))
	require.Equal(t, []string{"north", "east"}, c.ForFurniture("mirror", "garage"))
	require.Equal(t, []string{}, c.ForFurniture("lamp", "bedroom"))
}

func TestScore(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)

	// bedroom: 4 good + 1 warning out of 5 rules
	require.InDelta(t, 90.0, c.Score("bedroom"), 1e-9)
	require.InDelta(t, 100.0, c.Score("kitchen"), 1e-9)
}

func TestDirectionNames(t *testing.T) {
	c, err := Default()
	require.NoError(t, err)
	require.Equal(t,
		[]string{"north", "northeast", "east", "southeast", "south", "southwest", "west", "northwest"},
		c.DirectionNames())
}

func TestParseRejectsBadCatalog(t *testing.T) {
	_, err := Parse([]byte("rules:\n  - id: x\n    direction: up\n    severity: good\n"))
	require.Error(t, err)

	_, err = Parse([]byte("rules:\n  - id: x\n    direction: any\n    severity: great\n"))
	require.Error(t, err)

	_, err = Parse([]byte("rules:\n  - id: x\n    direction: any\n    severity: good\n  - id: x\n    direction: any\n    severity: good\n"))
	require.Error(t, err)

	_, err = Parse([]byte("rules: [unclosed"))
	require.Error(t, err)
}
