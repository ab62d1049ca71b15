package dispatcher

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/biteme/order-platform/pkg/model"
	"github.com/biteme/order-platform/pkg/protocol"
)

const reportsLogPrefix = "dispatcher:reports"

const reportDateLayout = "2006-01-02"

func (d *Dispatcher) handleReportManagement(ctx context.Context) *protocol.Envelope {
	// Advertises which reports the server supports; the client builds its
	// report menu from this instead of hard-coding it.
	return reply(protocol.TagReportManagementResponse, []string{
		protocol.TagIncomeReport,
		protocol.TagOrdersReport,
		protocol.TagPerformanceReport,
		protocol.TagQuarterlyReport,
	})
}

func (d *Dispatcher) handleRangeReport(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	replyTag := protocol.RequestKey(env.Tag)

	var req model.ReportRequest
	if err := env.Bind(&req); err != nil {
		return reply(replyTag, model.Report{Title: "invalid report request"})
	}
	start, err := time.Parse(reportDateLayout, req.StartDate)
	if err != nil {
		return reply(replyTag, model.Report{Title: "invalid start date, want YYYY-MM-DD"})
	}
	end, err := time.Parse(reportDateLayout, req.EndDate)
	if err != nil {
		return reply(replyTag, model.Report{Title: "invalid end date, want YYYY-MM-DD"})
	}
	// End date is inclusive on the wire; the queries use half-open ranges.
	end = end.AddDate(0, 0, 1)

	var report *model.Report
	switch env.Tag {
	case protocol.TagIncomeReport:
		report, err = d.store.IncomeReport(ctx, start, end, req.Identity)
	case protocol.TagOrdersReport:
		report, err = d.store.OrdersReport(ctx, start, end, req.Identity)
	case protocol.TagPerformanceReport:
		report, err = d.store.PerformanceReport(ctx, start, end, req.Identity)
	}
	if err != nil || report == nil {
		slog.Error(fmt.Sprintf("%s - %s failed: %v", reportsLogPrefix, env.Tag, err))
		return reply(replyTag, model.Report{Title: "report generation failed"})
	}
	return reply(replyTag, report)
}

func (d *Dispatcher) handleQuarterlyReport(ctx context.Context, env *protocol.Envelope) *protocol.Envelope {
	var req model.QuarterlyReportRequest
	if err := env.Bind(&req); err != nil {
		return reply(protocol.TagQuarterlyReportResponse, model.Report{Title: "invalid report request"})
	}

	report, err := d.store.QuarterlyReport(ctx, req.Quarter, req.Year, req.Branch)
	if err != nil {
		slog.Error(fmt.Sprintf("%s - quarterly report failed: %v", reportsLogPrefix, err))
		return reply(protocol.TagQuarterlyReportResponse, model.Report{Title: "report generation failed"})
	}
	return reply(protocol.TagQuarterlyReportResponse, report)
}
