package db

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/biteme/order-platform/pkg/model"
)

const reportsLogPrefix = "db:reports"

// IncomeReport sums delivered-order revenue per restaurant in the window.
func (r *Repository) IncomeReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error) {
	slog.Debug(fmt.Sprintf("%s - IncomeReport %s..%s branch=%s", reportsLogPrefix, start.Format("2006-01-02"), end.Format("2006-01-02"), branch))

	rows, err := r.pool.Query(ctx,
		`SELECT o.restaurant_id, COALESCE(SUM(o.total_price), 0)
		 FROM orders o
		 JOIN restaurants rst ON rst.id = o.restaurant_id
		 WHERE o.order_time >= $1 AND o.order_time < $2
		   AND o.status = $3
		   AND ($4 = '' OR rst.branch = $4)
		 GROUP BY o.restaurant_id
		 ORDER BY o.restaurant_id`,
		start, end, model.StatusDelivered, branch)
	if err != nil {
		return nil, fmt.Errorf("%s - IncomeReport failed: %w", reportsLogPrefix, err)
	}
	defer rows.Close()

	report := &model.Report{Title: "Income report", Figures: map[string]float64{}}
	total := 0.0
	for rows.Next() {
		var restaurantID string
		var income float64
		if err := rows.Scan(&restaurantID, &income); err != nil {
			return nil, fmt.Errorf("%s - IncomeReport scan failed: %w", reportsLogPrefix, err)
		}
		report.Rows = append(report.Rows, map[string]interface{}{
			"restaurantId": restaurantID,
			"income":       income,
		})
		total += income
	}
	report.Figures["totalIncome"] = total
	return report, rows.Err()
}

// OrdersReport counts orders per restaurant and status in the window.
func (r *Repository) OrdersReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT o.restaurant_id, o.status, COUNT(*)::int
		 FROM orders o
		 JOIN restaurants rst ON rst.id = o.restaurant_id
		 WHERE o.order_time >= $1 AND o.order_time < $2
		   AND ($3 = '' OR rst.branch = $3)
		 GROUP BY o.restaurant_id, o.status
		 ORDER BY o.restaurant_id, o.status`,
		start, end, branch)
	if err != nil {
		return nil, fmt.Errorf("%s - OrdersReport failed: %w", reportsLogPrefix, err)
	}
	defer rows.Close()

	report := &model.Report{Title: "Orders report", Figures: map[string]float64{}}
	total := 0.0
	for rows.Next() {
		var restaurantID, status string
		var count int
		if err := rows.Scan(&restaurantID, &status, &count); err != nil {
			return nil, fmt.Errorf("%s - OrdersReport scan failed: %w", reportsLogPrefix, err)
		}
		report.Rows = append(report.Rows, map[string]interface{}{
			"restaurantId": restaurantID,
			"status":       status,
			"orders":       count,
		})
		total += float64(count)
	}
	report.Figures["totalOrders"] = total
	return report, rows.Err()
}

// PerformanceReport measures delivery punctuality in the window: how many
// delivered orders arrived by their required time, and the average minutes
// from order to arrival.
func (r *Repository) PerformanceReport(ctx context.Context, start, end time.Time, branch string) (*model.Report, error) {
	var delivered, onTime int
	var avgMinutes *float64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)::int,
		        COALESCE(SUM(CASE WHEN o.actual_arrival_time <= o.required_time THEN 1 ELSE 0 END), 0)::int,
		        AVG(EXTRACT(EPOCH FROM (o.actual_arrival_time - o.order_time)) / 60)
		 FROM orders o
		 JOIN restaurants rst ON rst.id = o.restaurant_id
		 WHERE o.order_time >= $1 AND o.order_time < $2
		   AND o.status = $3
		   AND ($4 = '' OR rst.branch = $4)`,
		start, end, model.StatusDelivered, branch,
	).Scan(&delivered, &onTime, &avgMinutes)
	if err != nil {
		return nil, fmt.Errorf("%s - PerformanceReport failed: %w", reportsLogPrefix, err)
	}

	report := &model.Report{Title: "Performance report", Figures: map[string]float64{
		"deliveredOrders": float64(delivered),
		"onTimeOrders":    float64(onTime),
	}}
	if delivered > 0 {
		report.Figures["onTimePercentage"] = float64(onTime) / float64(delivered) * 100
	}
	if avgMinutes != nil {
		report.Figures["avgDeliveryMinutes"] = *avgMinutes
	}
	return report, nil
}

// QuarterlyReport aggregates order counts and revenue for a calendar
// quarter, optionally narrowed to a branch.
func (r *Repository) QuarterlyReport(ctx context.Context, quarter, year int, branch string) (*model.Report, error) {
	if quarter < 1 || quarter > 4 {
		return nil, fmt.Errorf("%s - quarter must be 1-4, got %d", reportsLogPrefix, quarter)
	}
	start := time.Date(year, time.Month((quarter-1)*3+1), 1, 0, 0, 0, 0, time.UTC)
	end := start.AddDate(0, 3, 0)

	var count int
	var revenue float64
	err := r.pool.QueryRow(ctx,
		`SELECT COUNT(*)::int, COALESCE(SUM(o.total_price), 0)
		 FROM orders o
		 JOIN restaurants rst ON rst.id = o.restaurant_id
		 WHERE o.order_time >= $1 AND o.order_time < $2
		   AND ($3 = '' OR rst.branch = $3)`,
		start, end, branch,
	).Scan(&count, &revenue)
	if err != nil {
		return nil, fmt.Errorf("%s - QuarterlyReport failed: %w", reportsLogPrefix, err)
	}

	return &model.Report{
		Title: fmt.Sprintf("Quarterly report Q%d %d", quarter, year),
		Figures: map[string]float64{
			"orders":  float64(count),
			"revenue": revenue,
		},
	}, nil
}
