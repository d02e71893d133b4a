package safe_tools

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/mwolter/workspace-mcp/internal/contacts"
	"github.com/mwolter/workspace-mcp/internal/gateway"
	"github.com/mwolter/workspace-mcp/internal/instrumentation"
	"github.com/mwolter/workspace-mcp/internal/pending"
	"github.com/mwolter/workspace-mcp/internal/server"
	"github.com/mwolter/workspace-mcp/internal/tools/common"
)

func registerEventTools(s *mcpserver.MCPServer, sc *server.ServerContext) {
	prepareTool := mcp.NewTool("prepare_create_event",
		append([]mcp.ToolOption{
			mcp.WithDescription("Stage a calendar event. Attendees may be contact names or email addresses; they are resolved and shown in a preview. Nothing is created until confirm_create_event"),
		}, eventParamOptions(false)...)...,
	)
	s.AddTool(prepareTool, common.InstrumentedToolHandler("prepare_create_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handlePrepareCreateEvent(ctx, request, sc)
		}))

	confirmOpts := append([]mcp.ToolOption{
		mcp.WithString("confirmationToken",
			mcp.Required(),
			mcp.Description("The token returned by prepare_create_event"),
		),
	}, eventParamOptions(true)...)
	confirmTool := mcp.NewTool("confirm_create_event",
		append([]mcp.ToolOption{
			mcp.WithDescription("Create the previously staged calendar event. The token and all parameters must exactly match the preview from prepare_create_event, with attendees as the resolved email addresses"),
		}, confirmOpts...)...,
	)
	s.AddTool(confirmTool, common.InstrumentedToolHandlerWithService("confirm_create_event", instrumentation.ServiceCalendar, "create_event", sc,
		func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
			return handleConfirmCreateEvent(ctx, request, sc)
		}))

	if sc.Yolo() {
		createTool := mcp.NewTool("create_event",
			append([]mcp.ToolOption{
				mcp.WithDescription("Create a calendar event immediately, without staging or confirmation. Attendees may be contact names or email addresses"),
			}, eventParamOptions(false)...)...,
		)
		s.AddTool(createTool, common.InstrumentedToolHandlerWithService("create_event", instrumentation.ServiceCalendar, "create_event", sc,
			func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
				return handleCreateEventNow(ctx, request, sc)
			}))
	}
}

// eventParamOptions returns the shared event parameter declarations.
// The confirm variant describes attendees as resolved addresses.
func eventParamOptions(confirm bool) []mcp.ToolOption {
	attendeesDesc := "Comma-separated attendees (contact names or email addresses)"
	if confirm {
		attendeesDesc = "Comma-separated resolved attendee email addresses, as shown in the preview"
	}
	return []mcp.ToolOption{
		mcp.WithString("summary",
			mcp.Required(),
			mcp.Description("Event title"),
		),
		mcp.WithString("start",
			mcp.Required(),
			mcp.Description("Start time, RFC3339 (e.g. 2026-09-01T14:00:00+02:00)"),
		),
		mcp.WithString("end",
			mcp.Required(),
			mcp.Description("End time, RFC3339"),
		),
		mcp.WithString("calendarId",
			mcp.Description("Calendar ID (default: 'primary')"),
		),
		mcp.WithString("description",
			mcp.Description("Event description"),
		),
		mcp.WithString("location",
			mcp.Description("Event location"),
		),
		mcp.WithString("timeZone",
			mcp.Description("IANA time zone for the event (default: UTC)"),
		),
		mcp.WithString("attendees",
			mcp.Description(attendeesDesc),
		),
		mcp.WithBoolean("addMeet",
			mcp.Description("Attach a Google Meet conference (default: false)"),
		),
	}
}

// parseEventParams extracts the shared event fields from a request.
// Attendees are returned separately, raw.
func parseEventParams(args map[string]interface{}) (gateway.EventParams, string, *mcp.CallToolResult) {
	summary := common.StringArg(args, "summary")
	if summary == "" {
		return gateway.EventParams{}, "", mcp.NewToolResultError("summary is required")
	}

	startRaw := common.StringArg(args, "start")
	if startRaw == "" {
		return gateway.EventParams{}, "", mcp.NewToolResultError("start is required")
	}
	start, err := time.Parse(time.RFC3339, startRaw)
	if err != nil {
		return gateway.EventParams{}, "", mcp.NewToolResultError(fmt.Sprintf("invalid start: %v", err))
	}

	endRaw := common.StringArg(args, "end")
	if endRaw == "" {
		return gateway.EventParams{}, "", mcp.NewToolResultError("end is required")
	}
	end, err := time.Parse(time.RFC3339, endRaw)
	if err != nil {
		return gateway.EventParams{}, "", mcp.NewToolResultError(fmt.Sprintf("invalid end: %v", err))
	}

	params := gateway.EventParams{
		CalendarID:  common.StringArg(args, "calendarId"),
		Summary:     summary,
		Description: common.StringArg(args, "description"),
		Location:    common.StringArg(args, "location"),
		Start:       start,
		End:         end,
		TimeZone:    common.StringArg(args, "timeZone"),
		AddMeet:     common.BoolArg(args, "addMeet", false),
	}
	return params, common.StringArg(args, "attendees"), nil
}

func handlePrepareCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params, attendeesRaw, errResult := parseEventParams(args)
	if errResult != nil {
		return errResult, nil
	}

	preview, err := sc.Gateway().PrepareCreateEvent(ctx, params, contacts.SplitList(attendeesRaw))
	if err != nil {
		return resolutionFailure(err), nil
	}

	recordStaged(ctx, sc, pending.KindCreateEvent)
	return previewResult(preview, "confirm_create_event"), nil
}

func handleConfirmCreateEvent(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	token := common.StringArg(args, "confirmationToken")
	if token == "" {
		return mcp.NewToolResultError("confirmationToken is required"), nil
	}

	params, attendeesRaw, errResult := parseEventParams(args)
	if errResult != nil {
		return errResult, nil
	}
	if params.CalendarID == "" {
		params.CalendarID = "primary"
	}
	params.Attendees = splitEmails(attendeesRaw)

	event, err := sc.Gateway().ConfirmCreateEvent(ctx, token, params)
	if err != nil {
		return confirmError(ctx, sc, pending.KindCreateEvent, err), nil
	}

	recordConfirmed(ctx, sc, pending.KindCreateEvent)
	result := fmt.Sprintf("Event created: %s (ID: %s).", event.Summary, event.ID)
	if event.HTMLLink != "" {
		result += "\nLink: " + event.HTMLLink
	}
	if event.MeetLink != "" {
		result += "\nMeet: " + event.MeetLink
	}
	return mcp.NewToolResultText(result), nil
}

func handleCreateEventNow(ctx context.Context, request mcp.CallToolRequest, sc *server.ServerContext) (*mcp.CallToolResult, error) {
	args := request.GetArguments()

	params, attendeesRaw, errResult := parseEventParams(args)
	if errResult != nil {
		return errResult, nil
	}

	event, err := sc.Gateway().CreateEventNow(ctx, params, contacts.SplitList(attendeesRaw))
	if err != nil {
		return resolutionFailure(err), nil
	}

	result := fmt.Sprintf("Event created: %s (ID: %s).", event.Summary, event.ID)
	if event.HTMLLink != "" {
		result += "\nLink: " + event.HTMLLink
	}
	return mcp.NewToolResultText(result), nil
}
