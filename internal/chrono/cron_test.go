package chrono

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestValidate(t *testing.T) {
	require.Nil(t, Validate("0 */6 * * *"))
	require.Nil(t, Validate("@hourly"))
	require.Error(t, Validate("every six hours"))
	require.Error(t, Validate("0 0 */6 * * *"))
}

func TestStandardCron(t *testing.T) {
	c := NewStandardCron(time.UTC)
	defer c.Stop()

	var runs atomic.Int32
	err := c.Cron("@every 1s", func() {
		runs.Add(1)
	})
	if err != nil {
		t.Fatal(err)
	}
	require.Len(t, c.Next(), 1)

	require.Eventually(t, func() bool {
		return runs.Load() >= 1
	}, 5*time.Second, 50*time.Millisecond)

	err = c.Cron("not a spec", func() {})
	require.Error(t, err)
}

func TestStandardCronSkipsOverlappingRuns(t *testing.T) {
	c := NewStandardCron(time.UTC)

	var running, overlapped atomic.Int32
	release := make(chan struct{})
	err := c.Cron("@every 1s", func() {
		if running.Add(1) > 1 {
			overlapped.Add(1)
		}
		<-release
		running.Add(-1)
	})
	if err != nil {
		t.Fatal(err)
	}

	// let at least two activations pass while the first run is blocked
	time.Sleep(2500 * time.Millisecond)
	close(release)
	<-c.Stop().Done()

	require.Equal(t, int32(0), overlapped.Load())
}

func TestSerial(t *testing.T) {
	var runs atomic.Int32
	started := make(chan struct{}, 2)
	release := make(chan struct{})
	job := Serial(func() {
		runs.Add(1)
		started <- struct{}{}
		<-release
	})

	done := make(chan struct{})
	go func() {
		job()
		close(done)
	}()
	<-started

	// skipped, the first call is still blocked
	job()
	require.Equal(t, int32(1), runs.Load())

	close(release)
	<-done
	job()
	require.Equal(t, int32(2), runs.Load())
}

func TestSerialDirectAndScheduled(t *testing.T) {
	c := NewStandardCron(time.UTC)

	var running, overlapped atomic.Int32
	job := Serial(func() {
		if running.Add(1) > 1 {
			overlapped.Add(1)
		}
		time.Sleep(2500 * time.Millisecond)
		running.Add(-1)
	})
	err := c.Cron("@every 1s", job)
	if err != nil {
		t.Fatal(err)
	}

	// an immediate run while the schedule keeps firing
	job()
	<-c.Stop().Done()

	require.Equal(t, int32(0), overlapped.Load())
}
