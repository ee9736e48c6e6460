package relstore

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLimitPolicy(t *testing.T) {
	tests := []struct {
		input   string
		want    LimitPolicy
		wantErr bool
	}{
		{input: "reject", want: LimitReject},
		{input: "warn", want: LimitWarn},
		{input: "Reject", wantErr: true},
		{input: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseLimitPolicy(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.input, got.String())
		})
	}
}

func TestLimitPolicy_StringUnknown(t *testing.T) {
	assert.Equal(t, "LimitPolicy(7)", LimitPolicy(7).String())
}

func TestViolation_String(t *testing.T) {
	v := Violation{Concept: "Sphere", Relation: "skill", SourceID: ID(4), Limit: 5, Count: 6, Policy: LimitReject}
	assert.Equal(t, "Sphere.skill: 4 would hold 6 values, limit is 5 (rejected)", v.String())

	v.Policy = LimitWarn
	assert.Equal(t, "Sphere.skill: 4 would hold 6 values, limit is 5 (appended)", v.String())
}

func TestLogSink(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))

	LogSink(logger).Notify(Violation{Concept: "Sphere", Relation: "skill", SourceID: ID(2), Limit: 1, Count: 2, Policy: LimitWarn})

	out := buf.String()
	assert.Contains(t, out, "level=WARN")
	assert.Contains(t, out, `msg="relation limit exceeded"`)
	assert.Contains(t, out, "concept=Sphere")
	assert.Contains(t, out, "relation=skill")
	assert.Contains(t, out, "source_id=2")
	assert.Contains(t, out, "policy=warn")
}

func TestFanout(t *testing.T) {
	var order []string
	first := SinkFunc(func(Violation) { order = append(order, "first") })
	second := SinkFunc(func(Violation) { order = append(order, "second") })

	Fanout(first, nil, second).Notify(Violation{})

	assert.Equal(t, []string{"first", "second"}, order)
}

func TestDiscard(t *testing.T) {
	assert.NotPanics(t, func() {
		Discard.Notify(Violation{})
	})
}
