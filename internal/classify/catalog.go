package classify

// analysisCatalog lists the analyses worth running first for each domain.
var analysisCatalog = map[string][]string{
	"sales":            {"revenue_trends", "customer_segmentation", "conversion_funnel", "sales_performance", "regional_analysis", "product_performance"},
	"hr":               {"headcount_analysis", "salary_distribution", "attendance_trends", "performance_reviews", "turnover_analysis", "department_breakdown"},
	"finance":          {"pnl_summary", "expense_breakdown", "cashflow_forecast", "budget_vs_actual", "financial_ratios", "trend_analysis"},
	"marketing":        {"campaign_performance", "roi_tracking", "lead_conversion", "channel_effectiveness", "audience_analysis", "engagement_metrics"},
	"procurement":      {"supplier_performance", "purchase_trends", "cost_analysis", "vendor_comparison", "inventory_turnover", "savings_analysis"},
	"factory":          {"machine_utilization", "downtime_analysis", "production_efficiency", "quality_metrics", "shift_comparison", "maintenance_scheduling"},
	"manufacturing":    {"batch_yield", "defect_trends", "production_volume", "process_optimization", "quality_control", "throughput_analysis"},
	"personal_expense": {"spending_pattern", "budget_comparison", "category_breakdown", "trend_analysis", "savings_rate", "expense_forecasting"},
	"it":               {"ticket_resolution_time", "device_uptime", "system_performance", "incident_trends", "user_satisfaction", "resource_utilization"},
	"admin":            {"policy_compliance", "asset_audit", "vendor_management", "contract_tracking", "facility_utilization", "cost_optimization"},
	"personal_life":    {"habit_trends", "wellness_score", "goal_progress", "mood_correlation", "routine_analysis", "improvement_tracking"},
	"healthcare":       {"patient_outcomes", "treatment_effectiveness", "resource_utilization", "appointment_analysis", "medication_tracking", "clinical_metrics"},
	"education":        {"student_performance", "attendance_correlation", "grade_distribution", "course_effectiveness", "learning_progress", "assessment_analysis"},
	"ecommerce":        {"sales_performance", "customer_behavior", "inventory_optimization", "conversion_analysis", "product_reviews", "shipping_efficiency"},
}

var genericAnalyses = []string{"basic_summary", "pattern_detection", "outlier_identification", "correlation_analysis", "trend_detection", "data_quality_check"}

// SuggestAnalyses returns the recommended analyses for a domain label.
func SuggestAnalyses(label string) []string {
	list, ok := analysisCatalog[label]
	if !ok {
		list = genericAnalyses
	}
	return append([]string(nil), list...)
}

// PersonaRecommendations groups recommended views per persona.
type PersonaRecommendations struct {
	Junior    []string `json:"junior"`
	Manager   []string `json:"manager"`
	Executive []string `json:"executive"`
}

var personaExtras = map[string]PersonaRecommendations{
	"sales": {
		Junior:    []string{"lead_tracking", "customer_data_validation"},
		Manager:   []string{"pipeline_analysis", "team_quota_performance"},
		Executive: []string{"revenue_forecast", "market_share_analysis"},
	},
	"finance": {
		Junior:    []string{"expense_categorization", "transaction_validation"},
		Manager:   []string{"budget_variance", "department_spending"},
		Executive: []string{"financial_health", "investment_roi"},
	},
	"hr": {
		Junior:    []string{"employee_data_cleanup", "attendance_records"},
		Manager:   []string{"team_capacity", "performance_trends"},
		Executive: []string{"workforce_planning", "talent_retention"},
	},
}

// PersonaMap returns the base persona recommendations, extended for the
// domains that have their own.
func PersonaMap(label string) PersonaRecommendations {
	p := PersonaRecommendations{
		Junior:    []string{"data_cleaning", "duplicate_detection", "basic_summary", "validation_checks"},
		Manager:   []string{"trend_analysis", "team_performance", "kpi_tracking", "comparison_reports"},
		Executive: []string{"kpi_dashboard", "roi_metrics", "strategic_insights", "performance_overview"},
	}
	if x, ok := personaExtras[label]; ok {
		p.Junior = append(p.Junior, x.Junior...)
		p.Manager = append(p.Manager, x.Manager...)
		p.Executive = append(p.Executive, x.Executive...)
	}
	return p
}
