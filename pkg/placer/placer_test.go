package placer

import (
	"context"
	"io"
	"testing"

	charmlog "github.com/charmbracelet/log"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

func testLogger() *charmlog.Logger {
	return charmlog.New(io.Discard)
}

// squareOutline builds a square board outline centered at the origin with the
// given half-width in mm.
func squareOutline(t *testing.T, halfMM float64) *geom.Outline {
	t.Helper()
	h := geom.FromMM(halfMM)
	o := geom.NewOutline()
	err := o.AddRing([]geom.Point{
		{X: -h, Y: -h},
		{X: h, Y: -h},
		{X: h, Y: h},
		{X: -h, Y: h},
	}, false)
	if err != nil {
		t.Fatalf("AddRing() error = %v", err)
	}
	return o
}

// rectOutline builds a rectangular outline from mm extents.
func rectOutline(t *testing.T, minX, minY, maxX, maxY float64) *geom.Outline {
	t.Helper()
	o := geom.NewOutline()
	err := o.AddRing([]geom.Point{
		{X: geom.FromMM(minX), Y: geom.FromMM(minY)},
		{X: geom.FromMM(maxX), Y: geom.FromMM(minY)},
		{X: geom.FromMM(maxX), Y: geom.FromMM(maxY)},
		{X: geom.FromMM(minX), Y: geom.FromMM(maxY)},
	}, false)
	if err != nil {
		t.Fatalf("AddRing() error = %v", err)
	}
	return o
}

// newFootprint builds a footprint with the given body extents in mm and a
// visible 3x1 mm front-silkscreen reference sitting on the body center, which
// is never a valid position.
func newFootprint(ref string, cxMM, cyMM, wMM, hMM float64) *board.Footprint {
	center := geom.Point{X: geom.FromMM(cxMM), Y: geom.FromMM(cyMM)}
	return &board.Footprint{
		Ref:      ref,
		Pos:      center,
		BodyBBox: geom.NewBBox(center, geom.FromMM(wMM), geom.FromMM(hMM)),
		Reference: board.NewTextField(board.Reference, ref, center,
			geom.Point{X: geom.FromMM(3), Y: geom.FromMM(1)},
			board.LayerFSilk, true),
	}
}

// allObstacles bypasses pruning so results can be re-validated against the
// complete board.
func allObstacles(brd *board.Board) *obstacles {
	var vias []*board.Via
	for _, v := range brd.Vias {
		if v.OnOuterCopper() {
			vias = append(vias, v)
		}
	}
	return &obstacles{
		footprints: brd.Footprints,
		vias:       vias,
		pads:       brd.ThroughHolePads(),
		masks:      brd.MaskRegions(),
		drawings:   brd.SilkDrawings(),
	}
}

func TestRunPlacesLabelAgainstBodyEdge(t *testing.T) {
	// A lone footprint on an open board: the very first candidate, resting
	// against the top body edge, must win. Touching the courtyard edge is not
	// a collision.
	fp := newFootprint("U1", 0, 0, 10, 5)
	brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: squareOutline(t, 50)}

	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Moved != 1 || res.Total != 1 {
		t.Fatalf("Run() = %d/%d moved, want 1/1", res.Moved, res.Total)
	}

	// Body top edge is at -2.5 mm, label half-height is 0.5 mm.
	want := geom.Point{X: 0, Y: geom.FromMM(-3)}
	if got := fp.Reference.Position(); got != want {
		t.Errorf("label at %v, want %v", got, want)
	}
}

func TestRunZeroDistanceLeavesLabelUntouched(t *testing.T) {
	fp := newFootprint("U1", 0, 0, 10, 5)
	brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: squareOutline(t, 50)}
	start := fp.Reference.Position()

	cfg := DefaultConfig()
	cfg.MaxAllowedDistance = 0

	p, err := New(brd, cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Moved != 0 || res.Total != 1 {
		t.Fatalf("Run() = %d/%d moved, want 0/1", res.Moved, res.Total)
	}
	if got := fp.Reference.Position(); got != start {
		t.Errorf("label at %v after failed search, want exactly %v", got, start)
	}
}

func TestRunAvoidsNeighborCourtyard(t *testing.T) {
	// A wide neighbor blocks the whole region above U1, so the label must
	// come to rest below instead, clear of both courtyards.
	fp := newFootprint("U1", 0, 0, 10, 5)
	blocker := newFootprint("U2", 0, -9, 40, 12)
	blocker.Reference.Visible = false
	brd := &board.Board{
		Footprints: []*board.Footprint{fp, blocker},
		Outline:    squareOutline(t, 50),
	}

	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Moved != 1 || res.Total != 1 {
		t.Fatalf("Run() = %d/%d moved, want 1/1", res.Moved, res.Total)
	}

	want := geom.Point{X: 0, Y: geom.FromMM(3)}
	if got := fp.Reference.Position(); got != want {
		t.Errorf("label at %v, want %v (below the body)", got, want)
	}
	if blocker.Courtyard(board.LayerFSilk).IntersectsBox(fp.Reference.BBox()) {
		t.Error("final label position collides with the neighbor courtyard")
	}
}

func TestRunKeepsLabelInsideOutline(t *testing.T) {
	// The board edge sits right above the footprint, so the preferred
	// above-the-body candidates all poke past the outline.
	fp := newFootprint("U1", 0, 0, 10, 5)
	brd := &board.Board{
		Footprints: []*board.Footprint{fp},
		Outline:    rectOutline(t, -50, -3, 50, 50),
	}

	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Moved != 1 {
		t.Fatalf("Run() moved %d labels, want 1", res.Moved)
	}

	want := geom.Point{X: 0, Y: geom.FromMM(3)}
	if got := fp.Reference.Position(); got != want {
		t.Errorf("label at %v, want %v (inside the outline)", got, want)
	}
}

func TestRunRestoresPositionWhenNothingFits(t *testing.T) {
	// An empty outline rejects every candidate. The field must come back
	// bit-for-bit.
	start := geom.Point{X: geom.FromMM(1.2345678), Y: geom.FromMM(-9.8765432)}
	fp := newFootprint("U1", 0, 0, 10, 5)
	if err := fp.Reference.SetPosition(start); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: geom.NewOutline()}

	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Moved != 0 {
		t.Fatalf("Run() moved %d labels on an impossible board, want 0", res.Moved)
	}
	if got := fp.Reference.Position(); got != start {
		t.Errorf("label at %v after failed search, want exactly %v", got, start)
	}
}

func TestRunIsDeterministic(t *testing.T) {
	build := func() *board.Board {
		a := newFootprint("U1", 0, 0, 10, 5)
		b := newFootprint("U2", 8, 0, 6, 6)
		c := newFootprint("R1", -7, 4, 3, 2)
		return &board.Board{
			Footprints: []*board.Footprint{a, b, c},
			Outline:    squareOutline(t, 50),
		}
	}

	run := func(brd *board.Board) []geom.Point {
		p, err := New(brd, DefaultConfig(), testLogger())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		out := make([]geom.Point, len(brd.Footprints))
		for i, fp := range brd.Footprints {
			out[i] = fp.Reference.Position()
		}
		return out
	}

	first := run(build())
	second := run(build())
	for i := range first {
		if first[i] != second[i] {
			t.Errorf("footprint %d placed at %v then %v, want identical runs", i, first[i], second[i])
		}
	}
}

func TestRunFinalPositionsValidAgainstFullBoard(t *testing.T) {
	// Pruning is an optimization only: every committed position must also be
	// valid against the complete, unpruned obstacle set.
	brd := &board.Board{
		Footprints: []*board.Footprint{
			newFootprint("U1", 0, 0, 10, 5),
			newFootprint("U2", 8, 0, 6, 6),
		},
		Vias: []*board.Via{
			{Pos: geom.Point{X: geom.FromMM(-40), Y: geom.FromMM(-40)}, Diameter: geom.FromMM(0.8), Top: board.LayerFCu, Bottom: board.LayerBCu},
		},
		Outline: squareOutline(t, 50),
	}

	cfg := DefaultConfig()
	cfg.IgnoreVias = false

	p, err := New(brd, cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Moved != res.Total {
		t.Fatalf("Run() = %d/%d moved, want all placed on this open board", res.Moved, res.Total)
	}

	full := allObstacles(brd)
	for _, fp := range brd.Footprints {
		if !p.eng.positionValid(fp.Reference, fp, full) {
			t.Errorf("%s reference invalid against the full obstacle set at %v", fp.Ref, fp.Reference.Position())
		}
	}
}

func TestRunViaObstacle(t *testing.T) {
	// A front-side via parked exactly on the preferred above-the-body spot.
	viaAt := func(top, bottom board.Layer) *board.Via {
		return &board.Via{
			Pos:      geom.Point{X: 0, Y: geom.FromMM(-3)},
			Diameter: geom.FromMM(1),
			Top:      top,
			Bottom:   bottom,
		}
	}

	tests := []struct {
		name       string
		via        *board.Via
		ignoreVias bool
		wantY      float64 // mm
	}{
		{
			name:       "front via blocks front label",
			via:        viaAt(board.LayerFCu, board.LayerBCu),
			ignoreVias: false,
			wantY:      3,
		},
		{
			name:       "ignored via blocks nothing",
			via:        viaAt(board.LayerFCu, board.LayerBCu),
			ignoreVias: true,
			wantY:      -3,
		},
		{
			name:       "back-only via does not block front label",
			via:        viaAt(board.LayerOther, board.LayerBCu),
			ignoreVias: false,
			wantY:      -3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fp := newFootprint("U1", 0, 0, 10, 5)
			brd := &board.Board{
				Footprints: []*board.Footprint{fp},
				Vias:       []*board.Via{tt.via},
				Outline:    squareOutline(t, 50),
			}
			cfg := DefaultConfig()
			cfg.IgnoreVias = tt.ignoreVias

			p, err := New(brd, cfg, testLogger())
			if err != nil {
				t.Fatalf("New() error = %v", err)
			}
			if _, err := p.Run(context.Background()); err != nil {
				t.Fatalf("Run() error = %v", err)
			}
			want := geom.Point{X: 0, Y: geom.FromMM(tt.wantY)}
			if got := fp.Reference.Position(); got != want {
				t.Errorf("label at %v, want %v", got, want)
			}
		})
	}
}

func TestRunSelectionOnly(t *testing.T) {
	selected := newFootprint("U1", 0, 0, 10, 5)
	selected.Selected = true
	ignored := newFootprint("U2", 20, 20, 10, 5)
	ignoredStart := ignored.Reference.Position()

	brd := &board.Board{
		Footprints: []*board.Footprint{selected, ignored},
		Outline:    squareOutline(t, 50),
	}
	cfg := DefaultConfig()
	cfg.OnlyProcessSelection = true

	p, err := New(brd, cfg, testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Total != 1 {
		t.Errorf("Run() considered %d labels, want 1 (only the selected footprint)", res.Total)
	}
	if got := ignored.Reference.Position(); got != ignoredStart {
		t.Errorf("unselected footprint's label moved to %v", got)
	}
}

func TestRunHiddenAndOffSilkFieldsSkipped(t *testing.T) {
	hidden := newFootprint("U1", 0, 0, 10, 5)
	hidden.Reference.Visible = false
	offSilk := newFootprint("U2", 20, 0, 10, 5)
	offSilk.Reference.Layer = board.LayerOther

	brd := &board.Board{
		Footprints: []*board.Footprint{hidden, offSilk},
		Outline:    squareOutline(t, 50),
	}
	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Total != 0 {
		t.Errorf("Run() considered %d labels, want 0", res.Total)
	}
}

func TestRunCancellation(t *testing.T) {
	brd := &board.Board{
		Footprints: []*board.Footprint{newFootprint("U1", 0, 0, 10, 5)},
		Outline:    squareOutline(t, 50),
	}
	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := p.Run(ctx); err != context.Canceled {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
}

func TestRunProcessesBothFields(t *testing.T) {
	fp := newFootprint("U1", 0, 0, 10, 5)
	fp.Value = board.NewTextField(board.Value, "10k", fp.Pos,
		geom.Point{X: geom.FromMM(3), Y: geom.FromMM(1)},
		board.LayerFSilk, true)
	brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: squareOutline(t, 50)}

	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	res, err := p.Run(context.Background())
	if err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if res.Total != 2 || res.Moved != 2 {
		t.Fatalf("Run() = %d/%d moved, want 2/2", res.Moved, res.Total)
	}

	// The reference goes first and claims the spot above; the value must not
	// stack on top of it.
	if fp.Reference.BBox().Intersects(fp.Value.BBox()) {
		t.Errorf("reference %v and value %v overlap after placement",
			fp.Reference.Position(), fp.Value.Position())
	}
}

func TestAudit(t *testing.T) {
	// U1's label starts on the body center (invalid); U2's label is parked in
	// clear space (valid).
	bad := newFootprint("U1", 0, 0, 10, 5)
	good := newFootprint("U2", 20, 20, 10, 5)
	if err := good.Reference.SetPosition(geom.Point{X: geom.FromMM(20), Y: geom.FromMM(14)}); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	brd := &board.Board{
		Footprints: []*board.Footprint{bad, good},
		Outline:    squareOutline(t, 50),
	}

	p, err := New(brd, DefaultConfig(), testLogger())
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	statuses, err := p.Audit(context.Background())
	if err != nil {
		t.Fatalf("Audit() error = %v", err)
	}
	if len(statuses) != 2 {
		t.Fatalf("Audit() returned %d statuses, want 2", len(statuses))
	}
	if statuses[0].Ref != "U1" || statuses[0].Valid {
		t.Errorf("U1 status = %+v, want invalid", statuses[0])
	}
	if statuses[1].Ref != "U2" || !statuses[1].Valid {
		t.Errorf("U2 status = %+v, want valid", statuses[1])
	}

	// Audit never moves anything.
	if got := bad.Reference.Position(); got != bad.Pos {
		t.Errorf("Audit() moved U1's label to %v", got)
	}
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepSize = 0
	brd := &board.Board{Outline: geom.NewOutline()}
	if _, err := New(brd, cfg, testLogger()); err == nil {
		t.Error("New() accepted a zero step size")
	}
}
