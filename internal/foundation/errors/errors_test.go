package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestBuilderProducesClassifiedError(t *testing.T) {
	err := NewError(CategoryRule, "bad frequency").
		WithContext("rule", "FREQ=SOMETIMES").
		Warning().
		Build()

	require.Equal(t, CategoryRule, err.Category())
	require.Equal(t, SeverityWarning, err.Severity())
	require.Equal(t, "FREQ=SOMETIMES", err.Context()["rule"])
	require.Contains(t, err.Error(), "bad frequency")
}

func TestWrapErrorUnwraps(t *testing.T) {
	cause := stderrors.New("disk full")
	err := WrapError(cause, CategoryStorage, "save tasks").Build()

	require.ErrorIs(t, err, cause)
	require.Contains(t, err.Error(), "disk full")
}

func TestHasCategoryThroughWrapping(t *testing.T) {
	inner := RecordError("missing id").Build()
	wrapped := fmt.Errorf("loading store: %w", inner)

	require.True(t, HasCategory(wrapped, CategoryRecord))
	require.False(t, HasCategory(wrapped, CategoryStorage))
	require.False(t, HasCategory(stderrors.New("plain"), CategoryRecord))
}

func TestWithContextDoesNotMutateOriginal(t *testing.T) {
	base := ValidationError("task not found").Build()
	derived := base.WithContext("task_id", "t1")

	require.Empty(t, base.Context())
	require.Equal(t, "t1", derived.Context()["task_id"])
	require.ErrorIs(t, derived, base)
}

func TestSeverityDefaults(t *testing.T) {
	require.Equal(t, SeverityWarning, RecordError("x").Build().Severity())
	require.Equal(t, SeverityWarning, RuleError("x").Build().Severity())
	require.Equal(t, SeverityFatal, ConfigError("x").Build().Severity())
	require.Equal(t, SeverityError, StorageError("x").Build().Severity())
}
