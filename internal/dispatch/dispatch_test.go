package dispatch

import (
	"testing"
	"time"

	"rs225server/internal/packettable"
	"rs225server/internal/player"
	"rs225server/internal/wire"
)

type fakeCtx struct {
	disconnected    *player.Player
	savedDisconnect *player.Player
	regionLoad      *player.Player
	messages        []string
	online          []string
}

func (f *fakeCtx) Disconnect(p *player.Player)        { f.disconnected = p }
func (f *fakeCtx) SaveAndDisconnect(p *player.Player)  { f.savedDisconnect = p }
func (f *fakeCtx) RequestRegionLoad(p *player.Player)  { f.regionLoad = p }
func (f *fakeCtx) SendSystemMessage(p *player.Player, text string) {
	f.messages = append(f.messages, text)
}
func (f *fakeCtx) OnlineUsernames() []string { return f.online }

func loggedInPlayer(x, z, height int) *player.Player {
	p := player.New(1)
	now := time.Now()
	p.OnConnect(nil, now)
	p.OnHandshakeComplete(now)
	p.OnLoggedIn("tester", 1, nil, nil, now)
	p.Pos = player.Position{X: x, Z: z, Height: height}
	return p
}

func TestHandleMovement_DestinationClickUsesNaivePath(t *testing.T) {
	p := loggedInPlayer(3222, 3218, 0)
	w := wire.NewWriter(8)
	w.WriteU8(0) // ctrl=walk
	w.WriteU16(3225)
	w.WriteU16(3218)
	r := wire.NewReader(w.Bytes())

	if err := Handle(&fakeCtx{}, p, packettable.OpMovementClick, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.Movement.Len() == 0 {
		t.Fatalf("expected naive_path to enqueue waypoints")
	}
}

func TestHandleMovement_DeltaListReconstructsWaypoints(t *testing.T) {
	p := loggedInPlayer(3222, 3218, 0)
	w := wire.NewWriter(16)
	w.WriteU8(0)
	w.WriteU16(3222)
	w.WriteU16(3218)
	w.WriteI8(1)
	w.WriteI8(0)
	w.WriteI8(1)
	w.WriteI8(0)
	w.WriteI8(1)
	w.WriteI8(0)
	r := wire.NewReader(w.Bytes())

	if err := Handle(&fakeCtx{}, p, packettable.OpMovementClick, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.Movement.Len() != 3 {
		t.Fatalf("expected 3 queued waypoints, got %d", p.Movement.Len())
	}
}

func TestHandleMovement_OutOfRangeStartRejected(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	w := wire.NewWriter(8)
	w.WriteU8(0)
	w.WriteU16(500)
	w.WriteU16(500)
	r := wire.NewReader(w.Bytes())

	if err := Handle(&fakeCtx{}, p, packettable.OpMovementClick, r); err != player.ErrProtocolViolation {
		t.Fatalf("expected ErrProtocolViolation, got %v", err)
	}
}

func TestHandlePlayerDesign_RejectedWithoutAllowDesign(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	p.AllowDesign = false
	w := wire.NewWriter(16)
	w.WriteU8(0)
	for i := 0; i < 7; i++ {
		w.WriteU8(1)
	}
	for i := 0; i < 5; i++ {
		w.WriteU8(2)
	}
	r := wire.NewReader(w.Bytes())

	if err := Handle(&fakeCtx{}, p, packettable.OpPlayerDesign, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.DesignComplete {
		t.Fatalf("design should not have been accepted")
	}
}

func TestHandlePlayerDesign_AcceptedWhenAllowed(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	p.AllowDesign = true
	w := wire.NewWriter(16)
	w.WriteU8(1)
	for i := 0; i < 7; i++ {
		w.WriteU8(uint8(i))
	}
	for i := 0; i < 5; i++ {
		w.WriteU8(uint8(i))
	}
	r := wire.NewReader(w.Bytes())

	if err := Handle(&fakeCtx{}, p, packettable.OpPlayerDesign, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if !p.DesignComplete || p.Flags&player.FlagAppearance == 0 {
		t.Fatalf("expected design accepted and Appearance flag set")
	}
}

func TestHandleInterfaceButton_SaveAndLogoutComponent(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	w := wire.NewWriter(4)
	w.WriteU16(2458)
	r := wire.NewReader(w.Bytes())
	ctx := &fakeCtx{}

	if err := Handle(ctx, p, packettable.OpInterfaceButton, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ctx.savedDisconnect != p {
		t.Fatalf("expected SaveAndDisconnect to be called")
	}
}

func TestHandleCommandLine_Tele(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	line := "::tele 100 200 1"
	w := wire.NewWriter(32)
	w.WriteBytes([]byte(line))
	r := wire.NewReader(w.Bytes())
	ctx := &fakeCtx{}

	if err := Handle(ctx, p, packettable.OpCommandLine, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if p.Pos.X != 100 || p.Pos.Z != 200 || p.Pos.Height != 1 {
		t.Fatalf("teleport did not apply: %+v", p.Pos)
	}
	if !p.NeedsPlacement {
		t.Fatalf("expected NeedsPlacement after teleport")
	}
	if ctx.regionLoad != p {
		t.Fatalf("expected RequestRegionLoad to be called")
	}
}

func TestHandleCommandLine_UnknownProducesHelp(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	w := wire.NewWriter(32)
	w.WriteBytes([]byte("::frobnicate"))
	r := wire.NewReader(w.Bytes())
	ctx := &fakeCtx{}

	if err := Handle(ctx, p, packettable.OpCommandLine, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if len(ctx.messages) != 1 {
		t.Fatalf("expected one help message, got %v", ctx.messages)
	}
}

func TestHandleIdleLogout_Disconnects(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	r := wire.NewReader(nil)
	ctx := &fakeCtx{}

	if err := Handle(ctx, p, packettable.OpIdleLogout, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
	if ctx.disconnected != p {
		t.Fatalf("expected Disconnect to be called")
	}
}

func TestHandleUnknownOpcode_NoOp(t *testing.T) {
	p := loggedInPlayer(0, 0, 0)
	r := wire.NewReader([]byte{1, 2, 3})
	if err := Handle(&fakeCtx{}, p, 250, r); err != nil {
		t.Fatalf("Handle: %v", err)
	}
}
