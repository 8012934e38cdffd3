package mcp

import (
	"context"
	"fmt"

	"github.com/meltforce/mapty/internal/app"
	"github.com/meltforce/mapty/internal/models"
	"github.com/meltforce/mapty/internal/render"
)

// DataSource abstracts where MCP tools read and write workouts. Local
// (in-process controller) and HTTPClient (remote via REST API) satisfy it.
type DataSource interface {
	ListWorkouts(ctx context.Context, kind string) ([]render.Item, error)
	GetWorkout(ctx context.Context, id string) (render.Item, error)
	LogWorkout(ctx context.Context, coords models.Coords, in app.FormInput) (render.Item, error)
	GetSummary(ctx context.Context) (models.Summary, error)
	FocusWorkout(ctx context.Context, id string) (render.Item, error)
}

// Local serves MCP requests from the controller of the running server.
type Local struct {
	app *app.App
}

var _ DataSource = (*Local)(nil)

func NewLocal(a *app.App) *Local {
	return &Local{app: a}
}

func (l *Local) ListWorkouts(_ context.Context, kind string) ([]render.Item, error) {
	k, err := kindFilter(kind)
	if err != nil {
		return nil, err
	}
	return render.Items(models.FilterKind(l.app.Workouts(), k)), nil
}

func (l *Local) GetWorkout(_ context.Context, id string) (render.Item, error) {
	w, err := l.app.Workout(id)
	if err != nil {
		return render.Item{}, err
	}
	return render.NewItem(w), nil
}

func (l *Local) LogWorkout(ctx context.Context, coords models.Coords, in app.FormInput) (render.Item, error) {
	w, err := l.app.Record(ctx, coords, in)
	if err != nil {
		return render.Item{}, err
	}
	return render.NewItem(w), nil
}

func (l *Local) GetSummary(context.Context) (models.Summary, error) {
	return l.app.Summary(), nil
}

func (l *Local) FocusWorkout(_ context.Context, id string) (render.Item, error) {
	w, err := l.app.Focus(id)
	if err != nil {
		return render.Item{}, err
	}
	return render.NewItem(w), nil
}

func kindFilter(kind string) (models.Kind, error) {
	if kind == "" {
		return "", nil
	}
	k, ok := models.ParseKind(kind)
	if !ok {
		return "", fmt.Errorf("unknown workout kind %q", kind)
	}
	return k, nil
}
