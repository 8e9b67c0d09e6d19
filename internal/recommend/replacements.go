package recommend

import (
	"strings"

	"github.com/promoguard/promoscan/internal/models"
)

// qualifyingSuffix is appended to flagged phrases that have no specific
// replacement in the table
const qualifyingSuffix = ", subject to applicable terms"

// replacement is one entry of the ordered phrase-replacement table. More
// specific matchers must come before their substrings so "guaranteed
// approval" wins over "guaranteed".
type replacement struct {
	matcher      string
	conservative string
	balanced     string
	reason       string
}

var replacements = []replacement{
	{
		matcher:      "guaranteed approval",
		conservative: "approval subject to eligibility checks",
		balanced:     "fast decisions for eligible applicants",
		reason:       "Unconditional approval promises are prohibited for regulated lending products",
	},
	{
		matcher:      "instant approval",
		conservative: "quick processing subject to verification",
		balanced:     "rapid processing once verification completes",
		reason:       "Approval cannot be promised before verification",
	},
	{
		matcher:      "guaranteed",
		conservative: "subject to eligibility",
		balanced:     "available to eligible customers",
		reason:       "Absolute guarantees misrepresent a conditional product",
	},
	{
		matcher:      "risk-free",
		conservative: "regulated financial service",
		balanced:     "a regulated financial service",
		reason:       "Financial products carry risk and cannot be marketed as risk-free",
	},
	{
		matcher:      "risk free",
		conservative: "regulated financial service",
		balanced:     "a regulated financial service",
		reason:       "Financial products carry risk and cannot be marketed as risk-free",
	},
	{
		matcher:      "no documentation",
		conservative: "simplified documentation requirements",
		balanced:     "minimal paperwork for eligible applicants",
		reason:       "Lending requires documentation; claiming otherwise is misleading",
	},
	{
		matcher:      "zero interest",
		conservative: "interest as per the published schedule of charges",
		balanced:     "introductory rates as per the schedule of charges",
		reason:       "Interest-free claims need the full pricing schedule disclosed",
	},
	{
		matcher:      "lowest interest",
		conservative: "competitive interest rates",
		balanced:     "among our most competitive rates",
		reason:       "Superlative rate claims need substantiation",
	},
	{
		matcher:      "instant cash",
		conservative: "quick disbursal after approval",
		balanced:     "fast disbursal for approved applications",
		reason:       "Disbursal timing depends on approval and cannot be promised as instant",
	},
	{
		matcher:      "act now",
		conservative: "explore the offer",
		balanced:     "see current offers",
		reason:       "Urgency pressure tactics attract regulatory scrutiny",
	},
	{
		matcher:      "limited time",
		conservative: "currently available",
		balanced:     "available this season",
		reason:       "Scarcity framing pressures borrowers into rushed decisions",
	},
}

// findReplacement returns the first table entry whose matcher occurs in
// the flagged text
func findReplacement(matchedText string) (replacement, bool) {
	lower := strings.ToLower(matchedText)
	for _, r := range replacements {
		if strings.Contains(lower, r.matcher) {
			return r, true
		}
	}
	return replacement{}, false
}

// additionTemplate describes the suggested content for one missing
// required element
type additionTemplate struct {
	matcher       string
	suggestedText string
	placement     string
	reference     string
}

var additionTemplates = []additionTemplate{
	{
		matcher:       "apr",
		suggestedText: "Annual Percentage Rate (APR): [rate]% p.a. onwards; final rate depends on credit assessment.",
		placement:     "immediately after the headline offer",
		reference:     "Interest rate disclosure requirements",
	},
	{
		matcher:       "annual percentage rate",
		suggestedText: "Annual Percentage Rate (APR): [rate]% p.a. onwards; final rate depends on credit assessment.",
		placement:     "immediately after the headline offer",
		reference:     "Interest rate disclosure requirements",
	},
	{
		matcher:       "processing fee",
		suggestedText: "Processing fee: up to [amount] of the sanctioned amount, deducted at disbursal.",
		placement:     "alongside the offer pricing",
		reference:     "Fee transparency requirements",
	},
	{
		matcher:       "terms and conditions",
		suggestedText: "Terms and conditions apply. Full details at [link].",
		placement:     "footer of the creative",
		reference:     "Standard disclosure requirements",
	},
	{
		matcher:       "grievance",
		suggestedText: "For complaints, contact our Grievance Redressal Officer at [email/phone].",
		placement:     "footer of the creative",
		reference:     "Grievance redressal requirements",
	},
	{
		matcher:       "penalty",
		suggestedText: "Late payment attracts penal charges as per the schedule of charges at [link].",
		placement:     "alongside the repayment terms",
		reference:     "Penalty disclosure requirements",
	},
}

// additionFor builds the suggested addition for one missing element, using
// the rule title as the regulatory reference when available
func additionFor(missing models.MissingElement) models.RequiredAddition {
	lower := strings.ToLower(missing.Element)
	for _, tmpl := range additionTemplates {
		if strings.Contains(lower, tmpl.matcher) {
			reference := missing.RuleTitle
			if reference == "" {
				reference = tmpl.reference
			}
			return models.RequiredAddition{
				Element:       missing.Element,
				SuggestedText: tmpl.suggestedText,
				Placement:     tmpl.placement,
				Reference:     reference,
			}
		}
	}

	reference := missing.RuleTitle
	if reference == "" {
		reference = "General disclosure requirements"
	}
	return models.RequiredAddition{
		Element:       missing.Element,
		SuggestedText: "Include " + missing.Element + " details in the creative.",
		Placement:     "body copy",
		Reference:     reference,
	}
}
