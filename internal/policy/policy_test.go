package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDecide_DefaultsToDirect(t *testing.T) {
	assert.Equal(t, Direct, Decide(Inputs{}))
}

func TestDecide_DirtyTreeForcesIsolation(t *testing.T) {
	assert.Equal(t, Isolated, Decide(Inputs{ProjectHasUncommittedChanges: true}))
}

func TestDecide_AutoContinueForcesIsolation(t *testing.T) {
	assert.Equal(t, Isolated, Decide(Inputs{AutoContinue: true}))
}

func TestDecide_ExplicitForceIsolatedWinsOverCleanTree(t *testing.T) {
	assert.Equal(t, Isolated, Decide(Inputs{ProjectHasUncommittedChanges: false, ForceIsolated: true}))
}

func TestDecide_ExplicitForceDirectWinsOverDirtyTree(t *testing.T) {
	assert.Equal(t, Direct, Decide(Inputs{ProjectHasUncommittedChanges: true, ForceDirect: true}))
}

func TestDecide_ForceIsolatedWinsWhenBothFlagsSet(t *testing.T) {
	assert.Equal(t, Isolated, Decide(Inputs{ForceIsolated: true, ForceDirect: true}))
}
