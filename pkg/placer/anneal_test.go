package placer

import (
	"context"
	"testing"

	"github.com/silkworks/autosilk/pkg/board"
	"github.com/silkworks/autosilk/pkg/geom"
)

func annealConfig() Config {
	cfg := DefaultConfig()
	cfg.Strategy = StrategyAnneal
	cfg.MaxIterations = 100
	cfg.Seed = 1
	return cfg
}

func TestAnnealFindsValidPosition(t *testing.T) {
	fp := newFootprint("U1", 0, 0, 10, 5)
	brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: squareOutline(t, 50)}

	p, err := New(brd, annealConfig(), testLogger())
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

	// The committed position must be genuinely valid and inside the search
	// square around the footprint center.
	if !p.eng.positionValid(fp.Reference, fp, allObstacles(brd)) {
		t.Errorf("committed position %v is not valid", fp.Reference.Position())
	}
	pos := fp.Reference.Position()
	maxDist := geom.FromMM(annealConfig().MaxAllowedDistance)
	if pos.X < -maxDist || pos.X > maxDist || pos.Y < -maxDist || pos.Y > maxDist {
		t.Errorf("committed position %v outside the %g mm search square",
			pos, annealConfig().MaxAllowedDistance)
	}
}

func TestAnnealRestoresPositionWhenNothingFits(t *testing.T) {
	start := geom.Point{X: geom.FromMM(2.7182818), Y: geom.FromMM(-3.1415926)}
	fp := newFootprint("U1", 0, 0, 10, 5)
	if err := fp.Reference.SetPosition(start); err != nil {
		t.Fatalf("SetPosition() error = %v", err)
	}
	brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: geom.NewOutline()}

	p, err := New(brd, annealConfig(), testLogger())
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

func TestAnnealIsReproducible(t *testing.T) {
	run := func() geom.Point {
		fp := newFootprint("U1", 0, 0, 10, 5)
		brd := &board.Board{Footprints: []*board.Footprint{fp}, Outline: squareOutline(t, 50)}
		p, err := New(brd, annealConfig(), testLogger())
		if err != nil {
			t.Fatalf("New() error = %v", err)
		}
		if _, err := p.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
		return fp.Reference.Position()
	}

	first := run()
	second := run()
	if first != second {
		t.Errorf("same seed placed the label at %v then %v", first, second)
	}
}

func TestAnnealEvaluationLeavesNoResidue(t *testing.T) {
	// The objective mutates the field to probe a candidate; it must always
	// put it back.
	eng := testEngine(t, annealConfig())
	a := newAnnealSearch(eng)

	fp := newFootprint("U1", 0, 0, 10, 5)
	obs := &obstacles{footprints: []*board.Footprint{fp}}
	start := fp.Reference.Position()

	// place either commits a new valid position or restores the original;
	// in both cases no intermediate probe position may survive. Run it on a
	// footprint whose only valid spots differ from the start.
	if ok := a.place(fp.Reference, fp, obs); ok {
		if !eng.positionValid(fp.Reference, fp, obs) {
			t.Errorf("place() committed invalid position %v", fp.Reference.Position())
		}
	} else if got := fp.Reference.Position(); got != start {
		t.Errorf("place() failed but left the field at %v, want %v", got, start)
	}
}

func TestParseStrategy(t *testing.T) {
	tests := []struct {
		in      string
		want    StrategyKind
		wantErr bool
	}{
		{"grid", StrategyGrid, false},
		{"", StrategyGrid, false},
		{"anneal", StrategyAnneal, false},
		{"stochastic", StrategyAnneal, false},
		{"random", "", true},
	}
	for _, tt := range tests {
		got, err := ParseStrategy(tt.in)
		if (err != nil) != tt.wantErr {
			t.Errorf("ParseStrategy(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseStrategy(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
