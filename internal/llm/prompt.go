package llm

import (
	"fmt"
	"strings"

	"github.com/referralab/urgentia/internal/model"
)

// ReferralSystemPrompt is the triage-specialist persona sent with every
// referral classification
const ReferralSystemPrompt = "You are a senior NHS clinical triage specialist with 15+ years emergency medicine experience. " +
	"Follow NHS Emergency Care Standards and NICE guidelines for accurate medical referral prioritization. " +
	"CRITICAL: Avoid over-escalation of routine cases - most NHS referrals are routine unless there are acute concerning features. " +
	"Be concise and decisive."

// ContextSplitMarker separates the original cases from the classification
// table inside stored context data
const ContextSplitMarker = "Referral Prioritisation Result:"

// referralRubric is the fixed tier rubric preceding the case details. The
// keyword rule and the table schema are contracts the extractor relies on.
const referralRubric = `You are an NHS clinical triage specialist. Classify this referral according to NHS Emergency Care Standards:

**NHS PRIORITY CLASSIFICATIONS (BE PRECISE - AVOID OVER-ESCALATION):**

• **EMERGENT (<15 minutes)**: ONLY life-threatening conditions requiring immediate intervention
  - Examples: Active cardiac arrest, acute stroke <4.5hrs, severe trauma with shock
  - Anaphylaxis with hypotension, DKA with severe acidosis, sepsis with organ failure
  - Type A aortic dissection, status epilepticus >5min, severe pre-eclampsia with seizure risk
  - Massive GI bleed with shock, meningococcal sepsis with purpuric rash

• **URGENT (<2 hours)**: Serious conditions requiring prompt assessment
  - Examples: Acute appendicitis, testicular torsion, acute urinary retention
  - Suspected ectopic pregnancy with pain, severe asthma not responding to treatment
  - New seizures with focal signs, acute cholangitis, new breast lump (2-week rule)
  - Reduced fetal movements <28 weeks, acute kidney injury with hyperkalemia

• **ROUTINE (<18 weeks)**: MOST standard NHS care - DO NOT over-escalate these
  - ALL routine follow-ups and monitoring (diabetes, hypertension, COPD, stable heart disease)
  - ALL screening appointments (mammography, colonoscopy, cervical, diabetic eye)
  - Medication reviews, health checks, contraceptive consultations
  - Stable chronic conditions without acute changes (psoriasis, stable angina, controlled asthma)
  - Elective procedures (vasectomy, cataract surgery, joint replacement follow-up)
  - Annual reviews for stable conditions (well-controlled epilepsy, stable thyroid nodules)

**CRITICAL RULE: If the case mentions 'routine', 'annual', 'follow-up', 'screening', 'stable', 'well-controlled', or 'monitoring' - it is likely ROUTINE unless there are acute concerning features.**

**CASE DETAILS:**
`

const referralInstructions = "For each case, provide: the NHS-compliant level of urgency (Emergent, Urgent, Routine), " +
	"appropriate timeframe, the correct referral destination (specialist unit following NHS pathways), " +
	"and clinical justification based on NHS guidelines. Present cases in descending order of urgency.\n\n" +
	"Respond using a Markdown table with columns: 'Patient ID', 'Name', 'Age', 'Sex', 'Address', " +
	"'Clinical Presentation', 'NHS Priority', 'Response Time', 'NHS Specialty', 'Clinical Justification', 'Urgency Rank'."

const contextAwareTemplate = "Based on the following medical referral context:\n\n%s\n\n" +
	"User question: %s\n\n" +
	"Please provide a detailed explanation addressing the user's question about the referral prioritization. " +
	"Focus on explaining the medical reasoning, urgency criteria, ranking factors, and clinical decision-making " +
	"that led to the specific prioritization outcomes."

// BuildPrompt constructs the system and user messages for one case. Pure
// function of its inputs plus the static rubric text.
func BuildPrompt(mode model.Mode, caseText, contextData string) (system, user string) {
	switch mode {
	case model.ModeReferral:
		return ReferralSystemPrompt, referralRubric + caseText + "\n\n" + referralInstructions

	case model.ModeContextAware:
		if strings.TrimSpace(contextData) == "" {
			// no context: treat as a plain medical question
			return "", fmt.Sprintf("Medical Question: %s\n\nPlease provide a detailed medical explanation.", caseText)
		}
		return "", fmt.Sprintf(contextAwareTemplate, contextData, caseText)

	default:
		return "", caseText
	}
}

// BuildContextData formats a query and its classification for storage, so
// follow-up questions can reference both
func BuildContextData(query, result string) string {
	return fmt.Sprintf("Original Cases:\n%s\n\n%s\n%s", query, ContextSplitMarker, result)
}

// PriorResult recovers the classification table from stored context data.
// Returns empty when the marker is absent.
func PriorResult(contextData string) string {
	idx := strings.Index(contextData, ContextSplitMarker)
	if idx < 0 {
		return ""
	}
	return strings.TrimSpace(contextData[idx+len(ContextSplitMarker):])
}
