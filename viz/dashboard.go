// ABOUTME: Dashboard metrics and terminal rendering
// ABOUTME: Reduces fetched deals and contacts into pipeline totals and draws an ASCII overview
package viz

import (
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/dealdeck/models"
	"github.com/harperreed/dealdeck/services"
)

// MetricsConfig tunes the dashboard reduction.
type MetricsConfig struct {
	// StageNames is the fixed per-stage scan order.
	StageNames []string
	// ClosedStages are excluded from active deals. The default "closed"
	// matches none of the standard stages, so every deal counts as active.
	ClosedStages []string
	// ConversionRate is a display constant in percent.
	ConversionRate float64
}

func DefaultMetricsConfig() MetricsConfig {
	return MetricsConfig{
		StageNames:     models.DefaultStageNames(),
		ClosedStages:   []string{"closed"},
		ConversionRate: 65,
	}
}

type StageTotal struct {
	Stage string  `json:"stage"`
	Count int     `json:"count"`
	Value float64 `json:"value"`
}

type ActivityItem struct {
	Type        string    `json:"type"`
	Description string    `json:"description"`
	ContactName string    `json:"contact_name,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

type DashboardMetrics struct {
	TotalContacts   int     `json:"total_contacts"`
	TotalDeals      int     `json:"total_deals"`
	ActiveDeals     int     `json:"active_deals"`
	PipelineValue   float64 `json:"pipeline_value"`
	AverageDealSize float64 `json:"average_deal_size"`
	ConversionRate  float64 `json:"conversion_rate"`

	StageTotals      []StageTotal   `json:"stage_totals"`
	RecentActivities []ActivityItem `json:"recent_activities"`
}

// ComputeDashboard reduces loaded dashboard data into metrics.
func ComputeDashboard(data *services.DashboardData, cfg MetricsConfig) DashboardMetrics {
	if len(cfg.StageNames) == 0 {
		cfg.StageNames = models.DefaultStageNames()
	}

	m := DashboardMetrics{
		TotalContacts:  len(data.Contacts),
		TotalDeals:     len(data.Deals),
		ConversionRate: cfg.ConversionRate,
	}

	closed := make(map[string]bool, len(cfg.ClosedStages))
	for _, s := range cfg.ClosedStages {
		closed[strings.ToLower(s)] = true
	}

	for _, d := range data.Deals {
		m.PipelineValue += d.Value
		if !closed[strings.ToLower(d.Stage)] {
			m.ActiveDeals++
		}
	}
	if m.ActiveDeals > 0 {
		m.AverageDealSize = m.PipelineValue / float64(m.ActiveDeals)
	}

	for _, name := range cfg.StageNames {
		st := StageTotal{Stage: name}
		for _, d := range data.Deals {
			if strings.EqualFold(d.Stage, name) {
				st.Count++
				st.Value += d.Value
			}
		}
		m.StageTotals = append(m.StageTotals, st)
	}

	names := services.ContactNames(data.Contacts)
	for _, a := range data.RecentActivities {
		item := ActivityItem{
			Type:        a.Type,
			Description: a.Description,
			Timestamp:   a.Timestamp,
		}
		if a.ContactID > 0 {
			item.ContactName = services.ContactName(names, a.ContactID)
		}
		m.RecentActivities = append(m.RecentActivities, item)
	}

	return m
}

// StageTotal returns the totals for a stage, ignoring case.
func (m DashboardMetrics) StageTotal(name string) StageTotal {
	for _, st := range m.StageTotals {
		if strings.EqualFold(st.Stage, name) {
			return st
		}
	}
	return StageTotal{Stage: name}
}

// FormatCurrency renders whole dollars with thousands separators.
func FormatCurrency(v float64) string {
	neg := v < 0
	if neg {
		v = -v
	}
	digits := fmt.Sprintf("%.0f", v)
	var out strings.Builder
	for i, r := range digits {
		if i > 0 && (len(digits)-i)%3 == 0 {
			out.WriteByte(',')
		}
		out.WriteRune(r)
	}
	if neg {
		return "-$" + out.String()
	}
	return "$" + out.String()
}

// FormatThousands renders a value in thousands, e.g. $125K.
func FormatThousands(v float64) string {
	return fmt.Sprintf("$%.0fK", v/1000)
}

func RenderDashboard(m DashboardMetrics) string {
	var out strings.Builder

	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n")
	out.WriteString("  DEALDECK DASHBOARD\n")
	out.WriteString("━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━━\n\n")

	out.WriteString("METRICS\n")
	out.WriteString(fmt.Sprintf("  Pipeline value   %s\n", FormatCurrency(m.PipelineValue)))
	out.WriteString(fmt.Sprintf("  Active deals     %d\n", m.ActiveDeals))
	out.WriteString(fmt.Sprintf("  Avg deal size    %s\n", FormatCurrency(m.AverageDealSize)))
	out.WriteString(fmt.Sprintf("  Conversion rate  %.0f%%\n\n", m.ConversionRate))

	out.WriteString("PIPELINE OVERVIEW\n")
	renderPipeline(&out, m.StageTotals)
	out.WriteString("\n")

	out.WriteString("STATS\n")
	out.WriteString(fmt.Sprintf("  📇 %d contacts  💼 %d deals\n", m.TotalContacts, m.TotalDeals))

	if len(m.RecentActivities) > 0 {
		out.WriteString("\nRECENT ACTIVITY\n")
		for _, a := range m.RecentActivities {
			line := fmt.Sprintf("  %s  %-8s %s", a.Timestamp.Format("Jan 02"), a.Type, a.Description)
			if a.ContactName != "" {
				line += " (" + a.ContactName + ")"
			}
			out.WriteString(line + "\n")
		}
	}

	return out.String()
}

func renderPipeline(out *strings.Builder, totals []StageTotal) {
	var maxValue float64
	for _, st := range totals {
		if st.Value > maxValue {
			maxValue = st.Value
		}
	}
	if maxValue == 0 {
		maxValue = 1
	}

	for _, st := range totals {
		barLength := int((st.Value * 10) / maxValue)
		bar := strings.Repeat("█", barLength) + strings.Repeat("░", 10-barLength)
		out.WriteString(fmt.Sprintf("  %-13s %s  %2d (%s)\n",
			st.Stage, bar, st.Count, FormatThousands(st.Value)))
	}
}
