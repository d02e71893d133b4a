package calendar_tools

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/calendar"
	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

// RegisterCalendarTools registers the Google Calendar tools with the
// MCP server.
func RegisterCalendarTools(s *mcpserver.MCPServer, sc *server.ServerContext) error {
	listCalendarsTool := mcp.NewTool("calendar_list_calendars",
		mcp.WithDescription("List the calendars the user can access"),
	)
	s.AddTool(listCalendarsTool, common.InstrumentedToolHandlerWithService("calendar_list_calendars", instrumentation.ServiceCalendar, "list_calendars", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListCalendars(ctx, sc)
		}))

	listEventsTool := mcp.NewTool("calendar_list_events",
		mcp.WithDescription("List events on a calendar within a time range"),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("timeMin",
			mcp.Description("Start of the range, RFC3339 (default: now)"),
		),
		mcp.WithString("timeMax",
			mcp.Description("End of the range, RFC3339 (default: 7 days from timeMin)"),
		),
		mcp.WithString("query",
			mcp.Description("Free-text filter on event fields"),
		),
	)
	s.AddTool(listEventsTool, common.InstrumentedToolHandlerWithService("calendar_list_events", instrumentation.ServiceCalendar, "list_events", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleListEvents(ctx, request, sc)
		}))

	getEventTool := mcp.NewTool("calendar_get_event",
		mcp.WithDescription("Get a single calendar event including attendees and conference link"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	)
	s.AddTool(getEventTool, common.InstrumentedToolHandlerWithService("calendar_get_event", instrumentation.ServiceCalendar, "get_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleGetEvent(ctx, request, sc)
		}))

	updateEventTool := mcp.NewTool("calendar_update_event",
		mcp.WithDescription("Update fields of an existing calendar event. Only the provided fields change; attendees may be contact names or email addresses and replace the existing list"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to update"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("summary",
			mcp.Description("New event title"),
		),
		mcp.WithString("description",
			mcp.Description("New event description"),
		),
		mcp.WithString("location",
			mcp.Description("New event location"),
		),
		mcp.WithString("start",
			mcp.Description("New start time, RFC3339. Must be provided together with end"),
		),
		mcp.WithString("end",
			mcp.Description("New end time, RFC3339. Must be provided together with start"),
		),
		mcp.WithString("attendees",
			mcp.Description("Comma-separated attendees (contact names or email addresses), replacing the current attendee list"),
		),
	)
	s.AddTool(updateEventTool, common.InstrumentedToolHandlerWithService("calendar_update_event", instrumentation.ServiceCalendar, "update_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleUpdateEvent(ctx, request, sc)
		}))

	deleteEventTool := mcp.NewTool("calendar_delete_event",
		mcp.WithDescription("Delete a calendar event"),
		mcp.WithString("eventId",
			mcp.Required(),
			mcp.Description("The ID of the event to delete"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
	)
	s.AddTool(deleteEventTool, common.InstrumentedToolHandlerWithService("calendar_delete_event", instrumentation.ServiceCalendar, "delete_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleDeleteEvent(ctx, request, sc)
		}))

	return nil
}

func handleListCalendars(ctx context.Context, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	calendars, err := client.ListCalendars(ctx)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to list calendars: %w", err)), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d calendars:\n", len(calendars))
	for i, cal := range calendars {
		marker := ""
		if cal.Primary {
			marker = " (primary)"
		}
		fmt.Fprintf(&b, "%d. %s%s (ID: %s, role: %s)\n", i+1, cal.Summary, marker, cal.ID, cal.AccessRole)
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleListEvents(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	calendarID := common.StringArg(args, "calendarId")

	timeMin := time.Now()
	if raw := common.StringArg(args, "timeMin"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid timeMin: %v", err)), nil
		}
		timeMin = parsed
	}
	timeMax := timeMin.Add(7 * 24 * time.Hour)
	if raw := common.StringArg(args, "timeMax"); raw != "" {
		parsed, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid timeMax: %v", err)), nil
		}
		timeMax = parsed
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	events, err := client.ListEvents(ctx, calendarID, timeMin, timeMax, common.StringArg(args, "query"))
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to list events: %w", err)), nil
	}

	if len(events) == 0 {
		return mcp.NewToolResultText("No events in the requested range."), nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Found %d events:\n", len(events))
	for i, ev := range events {
		fmt.Fprintf(&b, "%d. %s (ID: %s)\n   %s - %s\n", i+1, ev.Summary, ev.ID,
			ev.Start.Format("2006-01-02 15:04"), ev.End.Format("2006-01-02 15:04"))
		if ev.Location != "" {
			fmt.Fprintf(&b, "   Location: %s\n", ev.Location)
		}
	}
	return mcp.NewToolResultText(b.String()), nil
}

func handleGetEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	ev, err := client.GetEvent(ctx, common.StringArg(args, "calendarId"), eventID)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to get event %s: %w", eventID, err)), nil
	}

	return mcp.NewToolResultText(formatEvent(ev)), nil
}

func handleUpdateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	input := calendar.EventInput{
		Summary:     common.StringArg(args, "summary"),
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
	}

	startRaw := common.StringArg(args, "start")
	endRaw := common.StringArg(args, "end")
	if (startRaw == "") != (endRaw == "") {
		return mcp.NewToolResultError("start and end must be provided together"), nil
	}
	if startRaw != "" {
		start, err := time.Parse(time.RFC3339, startRaw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid start: %v", err)), nil
		}
		end, err := time.Parse(time.RFC3339, endRaw)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid end: %v", err)), nil
		}
		if !end.After(start) {
			return mcp.NewToolResultError("end must be after start"), nil
		}
		input.Start = start
		input.End = end
	}

	if attendeesRaw := common.StringArg(args, "attendees"); attendeesRaw != "" {
		resolved, err := sc.Resolver().ResolveEmails(ctx, contacts.SplitList(attendeesRaw))
		if err != nil {
			return common.ToolError(err), nil
		}
		input.Attendees = resolved
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	ev, err := client.UpdateEvent(ctx, common.StringArg(args, "calendarId"), eventID, input)
	if err != nil {
		return common.ToolError(fmt.Errorf("failed to update event %s: %w", eventID, err)), nil
	}
	return mcp.NewToolResultText("Event updated.\n\n" + formatEvent(ev)), nil
}

func handleDeleteEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	eventID := common.StringArg(args, "eventId")
	if eventID == "" {
		return mcp.NewToolResultError("eventId is required"), nil
	}

	client, err := sc.CalendarClient(ctx)
	if err != nil {
		return common.ToolError(err), nil
	}

	if err := client.DeleteEvent(ctx, common.StringArg(args, "calendarId"), eventID); err != nil {
		return common.ToolError(fmt.Errorf("failed to delete event %s: %w", eventID, err)), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Event %s deleted.", eventID)), nil
}

func formatEvent(ev *calendar.EventSummary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "%s (ID: %s)\n", ev.Summary, ev.ID)
	fmt.Fprintf(&b, "When: %s - %s\n", ev.Start.Format("2006-01-02 15:04"), ev.End.Format("2006-01-02 15:04"))
	if ev.Location != "" {
		fmt.Fprintf(&b, "Where: %s\n", ev.Location)
	}
	if ev.Organizer != "" {
		fmt.Fprintf(&b, "Organizer: %s\n", ev.Organizer)
	}
	if len(ev.Attendees) > 0 {
		fmt.Fprintf(&b, "Attendees:\n")
		for _, att := range ev.Attendees {
			fmt.Fprintf(&b, "  - %s", att.Email)
			if att.ResponseStatus != "" {
				fmt.Fprintf(&b, " (%s)", att.ResponseStatus)
			}
			fmt.Fprintf(&b, "\n")
		}
	}
	if ev.MeetLink != "" {
		fmt.Fprintf(&b, "Meet: %s\n", ev.MeetLink)
	}
	if ev.Description != "" {
		fmt.Fprintf(&b, "\n%s\n", ev.Description)
	}
	return b.String()
}
