package apperrors

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSeverityFor_KnownKinds(t *testing.T) {
	assert.Equal(t, SeverityDebug, severityFor(KindTransientIO))
	assert.Equal(t, SeverityWarn, severityFor(KindPermanentIO))
	assert.Equal(t, SeverityNone, severityFor(KindDecoding))
	assert.Equal(t, SeverityFatal, severityFor(KindIndexCorruption))
	assert.Equal(t, SeverityInfo, severityFor(KindCancellation))
}

func TestSeverityFor_UnknownKind_DefaultsToWarn(t *testing.T) {
	assert.Equal(t, SeverityWarn, severityFor(Kind("UNKNOWN")))
}
