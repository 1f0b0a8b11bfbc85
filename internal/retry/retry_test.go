package retry

import (
	"errors"
	"testing"
	"time"
)

type flaggedErr struct {
	msg       string
	transient bool
}

func (e flaggedErr) Error() string   { return e.msg }
func (e flaggedErr) Transient() bool { return e.transient }

func collectSleeps(sleeps *[]time.Duration) func(time.Duration) {
	return func(d time.Duration) { *sleeps = append(*sleeps, d) }
}

func fixedJitter(values ...float64) func() float64 {
	i := 0
	return func() float64 {
		v := values[i%len(values)]
		i++
		return v
	}
}

func TestDoSucceedsAfterFailures(t *testing.T) {
	var sleeps []time.Duration
	calls := 0
	c := Controller{
		MaxAttempts: 5,
		BaseDelay:   2 * time.Second,
		Sleep:       collectSleeps(&sleeps),
		Jitter:      fixedJitter(0.25, 0.5),
	}
	err := c.Do(func() error {
		calls++
		if calls <= 2 {
			return errors.New("boom")
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
	if calls != 3 {
		t.Fatalf("expected 3 calls, got %d", calls)
	}
	want := []time.Duration{
		2*time.Second + 250*time.Millisecond, // 2*2^0 + 0.25
		4*time.Second + 500*time.Millisecond, // 2*2^1 + 0.5
	}
	if len(sleeps) != len(want) {
		t.Fatalf("expected %d sleeps, got %d", len(want), len(sleeps))
	}
	for i := range want {
		if sleeps[i] != want[i] {
			t.Fatalf("sleep %d: got %v, want %v", i, sleeps[i], want[i])
		}
	}
}

func TestDoExhaustsAndReturnsLastError(t *testing.T) {
	var sleeps []time.Duration
	calls := 0
	final := errors.New("final failure")
	c := Controller{
		MaxAttempts: 3,
		BaseDelay:   time.Second,
		Sleep:       collectSleeps(&sleeps),
		Jitter:      fixedJitter(0),
	}
	err := c.Do(func() error {
		calls++
		if calls == 3 {
			return final
		}
		return errors.New("earlier failure")
	})
	if calls != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", calls)
	}
	if !errors.Is(err, final) {
		t.Fatalf("expected the last attempt's error unmodified, got %v", err)
	}
	// No sleep after the final attempt.
	if len(sleeps) != 2 {
		t.Fatalf("expected 2 sleeps, got %d", len(sleeps))
	}
}

func TestDoFailsFastOnNonTransient(t *testing.T) {
	calls := 0
	c := Controller{
		MaxAttempts: 5,
		Policy:      TransientOnly,
		Sleep:       func(time.Duration) {},
		Jitter:      fixedJitter(0),
	}
	err := c.Do(func() error {
		calls++
		return flaggedErr{msg: "bad json", transient: false}
	})
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
	if err == nil {
		t.Fatal("expected error")
	}
}

func TestDoRetryAllIgnoresClassification(t *testing.T) {
	calls := 0
	c := Controller{
		MaxAttempts: 2,
		Policy:      All,
		Sleep:       func(time.Duration) {},
		Jitter:      fixedJitter(0),
	}
	_ = c.Do(func() error {
		calls++
		return flaggedErr{msg: "bad json", transient: false}
	})
	if calls != 2 {
		t.Fatalf("expected 2 attempts under All policy, got %d", calls)
	}
}

func TestIsTransientDefaultsTrueForPlainErrors(t *testing.T) {
	if !IsTransient(errors.New("connection reset")) {
		t.Fatal("unclassified errors should be treated as transient")
	}
	if IsTransient(flaggedErr{transient: false}) {
		t.Fatal("non-transient classification ignored")
	}
	if !IsTransient(flaggedErr{transient: true}) {
		t.Fatal("transient classification ignored")
	}
}
