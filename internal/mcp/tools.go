package mcp

import (
	"context"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/meltforce/mapty/internal/app"
	"github.com/meltforce/mapty/internal/models"
)

// --- Tool definitions ---

var toolListWorkouts = mcp.NewTool("list_workouts",
	mcp.WithDescription("List recorded workouts, newest first. Each entry has a description like 'Running on April 14', coordinates and formatted details (distance, duration, pace or speed, cadence or elevation gain)."),
	mcp.WithString("kind", mcp.Description("Only return workouts of this kind"), mcp.Enum("running", "cycling")),
)

var toolGetWorkout = mcp.NewTool("get_workout",
	mcp.WithDescription("Get one workout by id."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id (UUID)")),
)

var toolLogWorkout = mcp.NewTool("log_workout",
	mcp.WithDescription("Record a workout at a map location. Running needs cadence (steps/min), cycling needs elevation gain (m, may be 0). Distance, duration and cadence must be positive."),
	mcp.WithString("type", mcp.Required(), mcp.Description("Workout kind"), mcp.Enum("running", "cycling")),
	mcp.WithNumber("lat", mcp.Required(), mcp.Description("Latitude in degrees")),
	mcp.WithNumber("lng", mcp.Required(), mcp.Description("Longitude in degrees")),
	mcp.WithNumber("distance", mcp.Required(), mcp.Description("Distance in km")),
	mcp.WithNumber("duration", mcp.Required(), mcp.Description("Duration in minutes")),
	mcp.WithNumber("cadence", mcp.Description("Cadence in steps per minute (running)")),
	mcp.WithNumber("elevation", mcp.Description("Elevation gain in meters (cycling)")),
)

var toolGetSummary = mcp.NewTool("get_summary",
	mcp.WithDescription("Totals per workout kind: count, distance, duration, average pace (running) or speed (cycling), average cadence and total elevation gain."),
)

var toolFocusWorkout = mcp.NewTool("focus_workout",
	mcp.WithDescription("Center the map on a workout's location. Fails when the map is unavailable because the server could not determine a starting position."),
	mcp.WithString("id", mcp.Required(), mcp.Description("Workout id (UUID)")),
)

// --- Tool handlers ---

func (h *handlers) listWorkouts(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	items, err := h.ds.ListWorkouts(ctx, req.GetString("kind", ""))
	if err != nil {
		h.log.Error("mcp list_workouts", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(items)
}

func (h *handlers) getWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	item, err := h.ds.GetWorkout(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func (h *handlers) logWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	kind, err := req.RequireString("type")
	if err != nil {
		return mcp.NewToolResultError("type parameter is required"), nil
	}
	lat, err := req.RequireFloat("lat")
	if err != nil {
		return mcp.NewToolResultError("lat parameter is required"), nil
	}
	lng, err := req.RequireFloat("lng")
	if err != nil {
		return mcp.NewToolResultError("lng parameter is required"), nil
	}

	args := req.GetArguments()
	in := app.FormInput{
		Type:      kind,
		Distance:  numberArg(args, "distance"),
		Duration:  numberArg(args, "duration"),
		Cadence:   numberArg(args, "cadence"),
		Elevation: numberArg(args, "elevation"),
	}

	item, err := h.ds.LogWorkout(ctx, models.Coords{Lat: lat, Lng: lng}, in)
	if err != nil {
		var verr *models.ValidationError
		if errors.As(err, &verr) {
			return mcp.NewToolResultError(verr.UserMessage() + ": " + verr.Error()), nil
		}
		h.log.Error("mcp log_workout", "error", err)
		return mcp.NewToolResultError("saving failed: " + err.Error()), nil
	}
	return jsonResult(item)
}

func (h *handlers) getSummary(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	s, err := h.ds.GetSummary(ctx)
	if err != nil {
		h.log.Error("mcp get_summary", "error", err)
		return mcp.NewToolResultError("query failed: " + err.Error()), nil
	}
	return jsonResult(s)
}

func (h *handlers) focusWorkout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := req.RequireString("id")
	if err != nil {
		return mcp.NewToolResultError("id parameter is required"), nil
	}
	item, err := h.ds.FocusWorkout(ctx, id)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(item)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	result, err := mcp.NewToolResultJSON(v)
	if err != nil {
		return mcp.NewToolResultError("serialization failed"), nil
	}
	return result, nil
}

// numberArg renders a numeric tool argument in the form's string shape.
// Missing arguments become "", which the controller rejects where required.
func numberArg(args map[string]any, key string) string {
	v, ok := args[key]
	if !ok || v == nil {
		return ""
	}
	return fmt.Sprint(v)
}
