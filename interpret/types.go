package interpret

type Category string

const (
	CategoryIndustryConfirmation Category = "industry_confirmation"
	CategoryBudgetExtraction     Category = "budget_extraction"
	CategoryMarketingFocus       Category = "marketing_focus"
	CategoryInstagramAllocation  Category = "instagram_allocation"
	CategoryCampaignStartDate    Category = "campaign_start_date"
	CategoryFinalConfirmation    Category = "final_confirmation"
	CategoryPlanModification     Category = "plan_modification_request"
)

// Categories lists every category the interpreter understands.
func Categories() []Category {
	return []Category{
		CategoryIndustryConfirmation,
		CategoryBudgetExtraction,
		CategoryMarketingFocus,
		CategoryInstagramAllocation,
		CategoryCampaignStartDate,
		CategoryFinalConfirmation,
		CategoryPlanModification,
	}
}

// Answer is the structured reading of one user reply.
type Answer interface {
	Category() Category
}

type IndustryConfirmation struct {
	Confirmed          bool    `json:"confirmed" jsonschema:"description=True if the user agrees with the detected industry"`
	CorrectedIndustry  *string `json:"corrected_industry" jsonschema:"description=Industry named by the user when they correct it"`
	NeedsClarification bool    `json:"needs_clarification" jsonschema:"description=True if the reply is too vague to decide"`
}

type BudgetExtraction struct {
	Amount                 *float64 `json:"amount" jsonschema:"description=Numeric amount as written by the user before magnitude words"`
	Currency               *string  `json:"currency" jsonschema:"description=Currency name such as dollars or rupees"`
	CurrencySymbol         *string  `json:"currency_symbol" jsonschema:"description=Currency symbol such as $ or ₹"`
	Period                 *string  `json:"period" jsonschema:"description=Budget period such as monthly"`
	Flexible               bool     `json:"flexible" jsonschema:"description=True if the user says the budget is flexible"`
	OriginalFormat         *string  `json:"original_format" jsonschema:"description=Budget exactly as phrased such as 20 crores"`
	ConvertedStandardValue *float64 `json:"converted_standard_value" jsonschema:"description=Budget in plain units where 1 crore is 10000000 and 1 lakh is 100000"`
}

type MarketingFocus struct {
	PrimaryFocus       *string  `json:"primary_focus" jsonschema:"enum=social_media,enum=search_ads,enum=balanced,description=Main marketing focus"`
	Confidence         float64  `json:"confidence" jsonschema:"description=Confidence between 0 and 1"`
	MentionedPlatforms []string `json:"mentioned_platforms" jsonschema:"description=Platforms named by the user"`
	MarketingGoals     []string `json:"marketing_goals" jsonschema:"description=Goals named by the user"`
	NeedsClarification bool     `json:"needs_clarification" jsonschema:"description=True if the preference is unclear"`
}

type InstagramAllocation struct {
	IncreaseInstagram   bool     `json:"increase_instagram" jsonschema:"description=True if the user wants more budget on Instagram ads"`
	SpecifiedPercentage *float64 `json:"specified_percentage" jsonschema:"description=Percentage of budget for Instagram if stated"`
	AlternativePlatform *string  `json:"alternative_platform" jsonschema:"description=Other platform the user prefers"`
	Concerns            []string `json:"concerns" jsonschema:"description=Concerns the user raised"`
}

type CampaignStartDate struct {
	IsAffirmativeOnly bool     `json:"is_affirmative_only" jsonschema:"description=True if the reply is only yes or ok without a date"`
	HasDate           bool     `json:"has_date" jsonschema:"description=True if the reply names a start date or timeframe"`
	SpecificDate      *string  `json:"specific_date" jsonschema:"description=Exact date if given"`
	RelativeTimeframe *string  `json:"relative_timeframe" jsonschema:"description=Relative start such as next week"`
	SeasonalTiming    *string  `json:"seasonal_timing" jsonschema:"description=Season or event such as before Diwali"`
	CampaignDuration  *string  `json:"campaign_duration" jsonschema:"description=How long the campaign runs such as 3 months"`
	Conditions        []string `json:"conditions" jsonschema:"description=Conditions attached to the start"`
}

type FinalConfirmation struct {
	Confirmed        bool     `json:"confirmed" jsonschema:"description=True if the user wants the final plan generated now"`
	RequestedChanges []string `json:"requested_changes" jsonschema:"description=Changes the user asks for first"`
	NeedsInformation []string `json:"needs_information" jsonschema:"description=Questions the user wants answered first"`
	Hesitant         bool     `json:"hesitant" jsonschema:"description=True if the user is unsure"`
}

type PlanModification struct {
	WantsBudgetChange               bool     `json:"wants_budget_change" jsonschema:"description=True if the user wants a different budget"`
	NewBudgetAmount                 *float64 `json:"new_budget_amount" jsonschema:"description=New budget amount as written"`
	NewBudgetCurrency               *string  `json:"new_budget_currency" jsonschema:"description=Currency of the new budget"`
	NewBudgetCurrencySymbol         *string  `json:"new_budget_currency_symbol" jsonschema:"description=Currency symbol of the new budget"`
	NewBudgetOriginalFormat         *string  `json:"new_budget_original_format" jsonschema:"description=New budget exactly as phrased"`
	NewBudgetConvertedStandardValue *float64 `json:"new_budget_converted_standard_value" jsonschema:"description=New budget in plain units"`
	WantsTimelineChange             bool     `json:"wants_timeline_change" jsonschema:"description=True if the user wants a different start date or duration"`
	NewStartDate                    *string  `json:"new_start_date" jsonschema:"description=New start date if given"`
	NewCampaignDuration             *string  `json:"new_campaign_duration" jsonschema:"description=New campaign duration if given"`
	ConfirmedHappyWithPlan          bool     `json:"confirmed_happy_with_plan" jsonschema:"description=True if the user is satisfied with the plan"`
	RequestedDownloadOrEmail        bool     `json:"requested_download_or_email" jsonschema:"description=True if the user asks to download or email the plan"`
	OtherRequest                    *string  `json:"other_request" jsonschema:"description=Any other request"`
}

func (*IndustryConfirmation) Category() Category { return CategoryIndustryConfirmation }
func (*BudgetExtraction) Category() Category     { return CategoryBudgetExtraction }
func (*MarketingFocus) Category() Category       { return CategoryMarketingFocus }
func (*InstagramAllocation) Category() Category  { return CategoryInstagramAllocation }
func (*CampaignStartDate) Category() Category    { return CategoryCampaignStartDate }
func (*FinalConfirmation) Category() Category    { return CategoryFinalConfirmation }
func (*PlanModification) Category() Category     { return CategoryPlanModification }

// WantsChange reports whether the reply asks to change budget or timeline.
func (p *PlanModification) WantsChange() bool {
	return p.WantsBudgetChange || p.WantsTimelineChange
}

// Budget resolves the new budget carried by the reply, if any.
func (p *PlanModification) Budget() (Budget, bool) {
	return ResolveBudget(p.NewBudgetAmount, p.NewBudgetCurrency, p.NewBudgetCurrencySymbol, p.NewBudgetOriginalFormat, p.NewBudgetConvertedStandardValue)
}

// Budget resolves the budget carried by the reply, if any.
func (b *BudgetExtraction) Budget() (Budget, bool) {
	return ResolveBudget(b.Amount, b.Currency, b.CurrencySymbol, b.OriginalFormat, b.ConvertedStandardValue)
}

// StartDate returns the most specific start date in the reply.
func (c *CampaignStartDate) StartDate() string {
	for _, v := range []*string{c.SpecificDate, c.RelativeTimeframe, c.SeasonalTiming} {
		if s := deref(v); s != "" {
			return s
		}
	}
	return ""
}

// Duration returns the campaign duration in the reply.
func (c *CampaignStartDate) Duration() string {
	return deref(c.CampaignDuration)
}

func defaultIndustryConfirmation(string) *IndustryConfirmation {
	return &IndustryConfirmation{Confirmed: true}
}

func defaultMarketingFocus(string) *MarketingFocus {
	return &MarketingFocus{MentionedPlatforms: []string{}, MarketingGoals: []string{}}
}

func defaultInstagramAllocation(string) *InstagramAllocation {
	return &InstagramAllocation{Concerns: []string{}}
}

func defaultCampaignStartDate(string) *CampaignStartDate {
	return &CampaignStartDate{Conditions: []string{}}
}

func defaultFinalConfirmation(string) *FinalConfirmation {
	return &FinalConfirmation{RequestedChanges: []string{}, NeedsInformation: []string{}}
}

func defaultPlanModification(string) *PlanModification {
	return &PlanModification{}
}

func deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}

func ptr[T any](v T) *T { return &v }
