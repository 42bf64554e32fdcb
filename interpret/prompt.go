package interpret

var instructions = map[Category]string{
	CategoryIndustryConfirmation: `You read a user's reply to the question "Is this the right industry for your business?".
Decide whether the user confirms the detected industry.
- confirmed: true when the user agrees (yes, correct, right).
- corrected_industry: the industry the user names instead, or null.
- needs_clarification: true only when the reply is unrelated or ambiguous.`,

	CategoryBudgetExtraction: `You extract a monthly marketing budget from a user's reply.
- amount: the number as written, before any magnitude word (for "20 crores" the amount is 20).
- Understand Indian formats: 1 lakh is 100000 and 1 crore is 10000000.
- original_format: the budget exactly as phrased, for example "20 crores" or "$5000".
- converted_standard_value: the budget in plain units (200000000 for "20 crores").
- currency and currency_symbol: infer them from the wording; use null when unknown.
- period: monthly unless the user says otherwise.
- flexible: true when the user says the budget can change.
Use null for every field you cannot find.`,

	CategoryMarketingFocus: `You read a user's answer about whether to focus on social media or search ads.
- primary_focus: social_media, search_ads or balanced. Use balanced when the user wants both.
- confidence: how sure you are, from 0 to 1.
- mentioned_platforms: platforms named by the user (Instagram, Google Ads, ...).
- marketing_goals: goals such as awareness, leads or sales.
- needs_clarification: true when the reply does not express a preference.`,

	CategoryInstagramAllocation: `You read a user's answer to "Would you like to allocate a larger portion of your budget to Instagram ads?".
- increase_instagram: true when the user agrees.
- specified_percentage: the percentage for Instagram when one is given.
- alternative_platform: another platform the user prefers instead.
- concerns: any concerns the user raises.`,

	CategoryCampaignStartDate: `You read a user's reply about when the marketing campaign should start and how long it should run.
- is_affirmative_only: true when the reply is only an acknowledgement such as "yes" or "sure" with no date.
- has_date: true when any start date or timeframe is given.
- specific_date, relative_timeframe, seasonal_timing: the start, by the most precise form available.
- campaign_duration: how long the campaign should run, if mentioned.
- conditions: any conditions the user attaches.`,

	CategoryFinalConfirmation: `You read a user's reply to "Are you ready to generate the final marketing plan?".
- confirmed: true when the user wants the plan generated now.
- requested_changes: changes the user wants first.
- needs_information: questions the user wants answered first.
- hesitant: true when the user is unsure.`,

	CategoryPlanModification: `The user has received a marketing plan. Read their reply.
- wants_budget_change / wants_timeline_change: true when they want a different budget, start date or duration.
- new_budget_*: the new budget using the same rules as budget extraction (1 lakh is 100000, 1 crore is 10000000).
- new_start_date, new_campaign_duration: the new timeline values when given.
- confirmed_happy_with_plan: true when the user is satisfied.
- requested_download_or_email: true when the user asks to download or email the plan.
- other_request: any other request, or null.`,
}
