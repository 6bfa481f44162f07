package executor_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/NotCoffee418/power-control-center/internal/executor"
	"github.com/NotCoffee418/power-control-center/internal/model/maction"
	"github.com/NotCoffee418/power-control-center/internal/model/mplan"
	"github.com/NotCoffee418/power-control-center/pkg/logger"
)

type call struct {
	kind        string
	device      string
	mode        int
	temperature float64
	fanSpeed    int
	swing       int
}

type fakeClient struct {
	calls    []call
	failNext error
}

func (c *fakeClient) TurnOnAc(ctx context.Context, device string, mode int, temperature float64, fanSpeed, swing int) error {
	if err := c.consumeFailure(); err != nil {
		return err
	}
	c.calls = append(c.calls, call{kind: "on", device: device, mode: mode, temperature: temperature, fanSpeed: fanSpeed, swing: swing})
	return nil
}

func (c *fakeClient) TurnOffAc(ctx context.Context, device string) error {
	if err := c.consumeFailure(); err != nil {
		return err
	}
	c.calls = append(c.calls, call{kind: "off", device: device})
	return nil
}

func (c *fakeClient) TogglePowerful(ctx context.Context, device string) error {
	if err := c.consumeFailure(); err != nil {
		return err
	}
	c.calls = append(c.calls, call{kind: "toggle", device: device})
	return nil
}

func (c *fakeClient) consumeFailure() error {
	err := c.failNext
	c.failNext = nil
	return err
}

var errBridgeDown = errors.New("bridge unreachable")

func newExecutor(client *fakeClient) *executor.Executor {
	return executor.New(client, logger.Discard())
}

func TestExecute_FirstCallAlwaysIssuesFullCommand(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	records, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now)
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(client.calls) != 1 || client.calls[0].kind != "on" {
		t.Fatalf("calls = %+v, want a single 'on' call", client.calls)
	}
	if len(records) != 1 || records[0].ActionType != maction.ActionOn {
		t.Fatalf("records = %+v, want a single ActionOn record", records)
	}

	state, ok := e.CachedState("living_room")
	if !ok || !state.IsOn {
		t.Errorf("cached state = %+v, ok=%v, want IsOn after first execute", state, ok)
	}
}

func TestExecute_FirstCallOffIssuesTurnOff(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	_, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeOff}, time.Now())
	if err != nil {
		t.Fatalf("execute: %v", err)
	}
	if len(client.calls) != 1 || client.calls[0].kind != "off" {
		t.Fatalf("calls = %+v, want a single 'off' call", client.calls)
	}
}

func TestExecute_NoOpWhenPlanMatchesCache(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	plan := mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}
	if _, err := e.Execute(context.Background(), "living_room", plan, now); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	client.calls = nil

	records, err := e.Execute(context.Background(), "living_room", plan, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("second execute: %v", err)
	}
	if len(client.calls) != 0 {
		t.Errorf("calls = %+v, want none when the desired state is unchanged", client.calls)
	}
	if len(records) != 0 {
		t.Errorf("records = %+v, want none for a no-op tick", records)
	}
}

func TestExecute_PowerfulToggleIsIndependentOfOnOff(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityHigh}, now); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	client.calls = nil

	// Same mode, intensity High->Medium: the reference PlanToState changes
	// both the temperature and Powerful (true->false), so an on call
	// carrying the new temperature is followed by a separate
	// toggle_powerful call; assert both appear together.
	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now.Add(time.Hour)); err != nil {
		t.Fatalf("second execute: %v", err)
	}
	var kinds []string
	for _, c := range client.calls {
		kinds = append(kinds, c.kind)
	}
	if len(kinds) != 2 || kinds[0] != "on" || kinds[1] != "toggle" {
		t.Errorf("calls = %v, want [on toggle] for a temperature+powerful change", kinds)
	}
}

func TestExecute_MinOnTimeGuardHoldsOffCommand(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now); err != nil {
		t.Fatalf("turn on: %v", err)
	}
	client.calls = nil

	records, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeOff}, now.Add(5*time.Minute))
	if err != nil {
		t.Fatalf("execute within guard window: %v", err)
	}
	if len(client.calls) != 0 || len(records) != 0 {
		t.Errorf("calls = %+v, records = %+v, want none within MinOnTime of turning on", client.calls, records)
	}

	state, _ := e.CachedState("living_room")
	if !state.IsOn {
		t.Error("cached state should still show the device on while the guard holds")
	}
}

func TestExecute_MinOnTimeGuardExpires(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now); err != nil {
		t.Fatalf("turn on: %v", err)
	}
	client.calls = nil

	records, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeOff}, now.Add(executor.MinOnTime+time.Minute))
	if err != nil {
		t.Fatalf("execute after guard window: %v", err)
	}
	if len(client.calls) != 1 || client.calls[0].kind != "off" {
		t.Fatalf("calls = %+v, want a single 'off' call once MinOnTime has elapsed", client.calls)
	}
	if len(records) != 1 {
		t.Errorf("records = %+v, want one off record", records)
	}
}

func TestExecute_ClearMinOnTimeGuardBypassesHold(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now); err != nil {
		t.Fatalf("turn on: %v", err)
	}
	client.calls = nil

	e.ClearMinOnTimeGuard("living_room")

	records, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeOff}, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("execute after clearing guard: %v", err)
	}
	if len(client.calls) != 1 || client.calls[0].kind != "off" {
		t.Fatalf("calls = %+v, want a single 'off' call once the guard is cleared", client.calls)
	}
	if len(records) != 1 {
		t.Errorf("records = %+v, want one off record", records)
	}
}

func TestExecute_ForceFullResendTreatsNextExecuteAsFirst(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)
	plan := mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}

	if _, err := e.Execute(context.Background(), "living_room", plan, now); err != nil {
		t.Fatalf("first execute: %v", err)
	}
	client.calls = nil

	e.ForceFullResend("living_room")
	records, err := e.Execute(context.Background(), "living_room", plan, now.Add(time.Minute))
	if err != nil {
		t.Fatalf("execute after force resend: %v", err)
	}
	if len(client.calls) != 1 || client.calls[0].kind != "on" {
		t.Fatalf("calls = %+v, want a resent 'on' call even though the plan is unchanged", client.calls)
	}
	if len(records) != 1 {
		t.Errorf("records = %+v, want one record for the resend", records)
	}
}

func TestExecute_CommandFailedMarksDegradedAfterTwoFailures(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)
	plan := mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}

	client.failNext = errBridgeDown
	if _, err := e.Execute(context.Background(), "living_room", plan, now); err == nil {
		t.Fatal("expected an error on the first failing call")
	} else {
		var cf *executor.CommandFailed
		if !errors.As(err, &cf) {
			t.Fatalf("err = %v, want *executor.CommandFailed", err)
		}
		if cf.Degraded {
			t.Error("device should not be degraded after only one failure")
		}
	}
	if e.Degraded("living_room") {
		t.Error("Degraded() should be false after one failure")
	}

	client.failNext = errBridgeDown
	_, err := e.Execute(context.Background(), "living_room", plan, now.Add(time.Minute))
	var cf *executor.CommandFailed
	if !errors.As(err, &cf) || !cf.Degraded {
		t.Fatalf("err = %v, want a degraded *executor.CommandFailed after two consecutive failures", err)
	}
	if !e.Degraded("living_room") {
		t.Error("Degraded() should be true after two consecutive failures")
	}
}

func TestExecute_SuccessResetsFailureCount(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)
	plan := mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}

	client.failNext = errBridgeDown
	if _, err := e.Execute(context.Background(), "living_room", plan, now); err == nil {
		t.Fatal("expected an error on the failing call")
	}

	if _, err := e.Execute(context.Background(), "living_room", plan, now.Add(time.Minute)); err != nil {
		t.Fatalf("expected the retry to succeed: %v", err)
	}
	if e.Degraded("living_room") {
		t.Error("a successful command should clear the degraded state")
	}
}

func TestExecute_LastChangeMinutesTracksIssuedCommandsOnly(t *testing.T) {
	client := &fakeClient{}
	e := newExecutor(client)
	now := time.Unix(1_700_000_000, 0)

	if _, ok := e.LastChangeMinutes("living_room", now); ok {
		t.Error("expected no last-change time before any command has been issued")
	}

	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now); err != nil {
		t.Fatalf("execute: %v", err)
	}
	mins, ok := e.LastChangeMinutes("living_room", now.Add(10*time.Minute))
	if !ok || mins != 10 {
		t.Errorf("LastChangeMinutes = %d, %v, want 10, true", mins, ok)
	}

	// A no-op tick issues no commands and must not move lastActionAt: the
	// next check is still measured from the original command, not from
	// this tick's timestamp.
	if _, err := e.Execute(context.Background(), "living_room", mplan.Plan{Mode: mplan.ModeColder, Intensity: mplan.IntensityMedium}, now.Add(20*time.Minute)); err != nil {
		t.Fatalf("no-op execute: %v", err)
	}
	mins, ok = e.LastChangeMinutes("living_room", now.Add(30*time.Minute))
	if !ok || mins != 30 {
		t.Errorf("LastChangeMinutes after no-op tick = %d, %v, want 30 (unaffected by the no-op tick)", mins, ok)
	}
}
