package solver

import (
	"errors"
	"testing"
	"time"

	"github.com/nextmv-io/sdk/mip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeOutcome struct {
	values, optimal, subOptimal, infeasible, unbounded, timeOut bool
}

func (f fakeOutcome) HasValues() bool    { return f.values }
func (f fakeOutcome) IsOptimal() bool    { return f.optimal }
func (f fakeOutcome) IsSubOptimal() bool { return f.subOptimal }
func (f fakeOutcome) IsInfeasible() bool { return f.infeasible }
func (f fakeOutcome) IsUnbounded() bool  { return f.unbounded }
func (f fakeOutcome) IsTimeOut() bool    { return f.timeOut }

func TestClassify(t *testing.T) {
	tests := []struct {
		name string
		in   fakeOutcome
		want Status
	}{
		{name: "optimal", in: fakeOutcome{values: true, optimal: true}, want: Optimal},
		{name: "infeasible", in: fakeOutcome{infeasible: true}, want: Infeasible},
		{name: "unbounded", in: fakeOutcome{unbounded: true}, want: Unbounded},
		{name: "timeout", in: fakeOutcome{timeOut: true}, want: TimedOut},
		{name: "suboptimal with values", in: fakeOutcome{values: true, subOptimal: true}, want: TimedOut},
		{name: "nothing", in: fakeOutcome{}, want: Error},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, classify(tt.in))
		})
	}
}

func TestEffective(t *testing.T) {
	withIncumbent := NewResult(TimedOut, 12, time.Second, map[int]float64{0: 1})
	assert.True(t, withIncumbent.Incumbent)
	assert.Equal(t, Optimal, withIncumbent.Effective())

	without := NewResult(TimedOut, 0, time.Second, nil)
	assert.False(t, without.Incumbent)
	assert.Equal(t, Infeasible, without.Effective())

	assert.Equal(t, Unbounded, NewResult(Unbounded, 0, 0, nil).Effective())
	assert.Equal(t, "TimedOut", TimedOut.String())
	assert.Equal(t, "Error", Status(42).String())
}

func TestResultValue(t *testing.T) {
	m := mip.NewModel()
	a := m.NewBool()
	b := m.NewBool()

	r := NewResult(Optimal, 1, 0, map[int]float64{a.Index(): 0.97})
	assert.Equal(t, 0.97, r.Value(a))
	assert.Zero(t, r.Value(b))
}

func TestSolverErrorUnwraps(t *testing.T) {
	cause := errors.New("license expired")
	err := error(&SolverError{Op: "solve", Err: cause})
	require.ErrorIs(t, err, cause)
	assert.Equal(t, "solver solve: license expired", err.Error())
}
