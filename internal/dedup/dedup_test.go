// FilePath: internal/dedup/dedup_test.go
package dedup

import (
	"sync"
	"testing"
	"time"
)

func TestShouldNotifyFirstAlert(t *testing.T) {
	d := New(15*time.Minute, 2.0)

	if !d.ShouldNotify("sensor_1", "temperature", 30) {
		t.Fatal("first alert must pass")
	}
}

func TestShouldNotifySuppressesWithinCooldown(t *testing.T) {
	d := New(15*time.Minute, 2.0)
	base := time.Now()
	d.SetClock(func() time.Time { return base })

	d.ShouldNotify("sensor_1", "temperature", 30)

	d.SetClock(func() time.Time { return base.Add(5 * time.Minute) })
	if d.ShouldNotify("sensor_1", "temperature", 30.5) {
		t.Fatal("repeat within cooldown must be suppressed")
	}
}

func TestShouldNotifyAfterCooldown(t *testing.T) {
	d := New(15*time.Minute, 2.0)
	base := time.Now()
	d.SetClock(func() time.Time { return base })

	d.ShouldNotify("sensor_1", "temperature", 30)

	d.SetClock(func() time.Time { return base.Add(15 * time.Minute) })
	if !d.ShouldNotify("sensor_1", "temperature", 30) {
		t.Fatal("alert after cooldown must pass")
	}
}

func TestShouldNotifyEscalationBreaksCooldown(t *testing.T) {
	d := New(15*time.Minute, 2.0)
	base := time.Now()
	d.SetClock(func() time.Time { return base })

	d.ShouldNotify("sensor_1", "temperature", 30)

	d.SetClock(func() time.Time { return base.Add(time.Minute) })
	if !d.ShouldNotify("sensor_1", "temperature", 32.5) {
		t.Fatal("escalated value must break through the cooldown")
	}

	// The escalation reset the window against the new value.
	d.SetClock(func() time.Time { return base.Add(2 * time.Minute) })
	if d.ShouldNotify("sensor_1", "temperature", 33) {
		t.Fatal("small move after escalation must be suppressed")
	}
}

func TestShouldNotifyEscalationDownward(t *testing.T) {
	d := New(15*time.Minute, 2.0)
	base := time.Now()
	d.SetClock(func() time.Time { return base })

	d.ShouldNotify("sensor_1", "temperature", 30)

	d.SetClock(func() time.Time { return base.Add(time.Minute) })
	if !d.ShouldNotify("sensor_1", "temperature", 27) {
		t.Fatal("escalation delta applies to moves in both directions")
	}
}

func TestShouldNotifyKeysAreIndependent(t *testing.T) {
	d := New(15*time.Minute, 2.0)
	base := time.Now()
	d.SetClock(func() time.Time { return base })

	d.ShouldNotify("sensor_1", "temperature", 30)

	if !d.ShouldNotify("sensor_1", "humidity", 30) {
		t.Error("different parameter on same source must pass")
	}
	if !d.ShouldNotify("sensor_2", "temperature", 30) {
		t.Error("same parameter on different source must pass")
	}
}

func TestReset(t *testing.T) {
	d := New(15*time.Minute, 2.0)
	base := time.Now()
	d.SetClock(func() time.Time { return base })

	d.ShouldNotify("sensor_1", "temperature", 30)
	d.Reset()

	if !d.ShouldNotify("sensor_1", "temperature", 30) {
		t.Fatal("alert after reset must pass")
	}
}

func TestDefaultsApplied(t *testing.T) {
	d := New(0, -1)
	if d.cooldown != DefaultCooldown {
		t.Errorf("cooldown = %v, want %v", d.cooldown, DefaultCooldown)
	}
	if d.delta != DefaultEscalationDelta {
		t.Errorf("delta = %v, want %v", d.delta, DefaultEscalationDelta)
	}
}

func TestShouldNotifyConcurrent(t *testing.T) {
	d := New(15*time.Minute, 2.0)

	var wg sync.WaitGroup
	passed := make(chan bool, 64)
	for i := 0; i < 64; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			passed <- d.ShouldNotify("sensor_1", "temperature", 30)
		}()
	}
	wg.Wait()
	close(passed)

	count := 0
	for p := range passed {
		if p {
			count++
		}
	}
	if count != 1 {
		t.Fatalf("exactly one concurrent caller must pass, got %d", count)
	}
}
