package safety

// Categories of queries that are answered with a safety response instead of retrieval.
const (
	CategoryPregnancy        Category = "pregnancy"
	CategoryMedicalCondition Category = "medical_condition"
	CategoryRecentSurgery    Category = "recent_surgery"
)

// DefaultRules returns the built-in rule table in evaluation order.
func DefaultRules() []Rule {
	return []Rule{
		{
			Category: CategoryPregnancy,
			Terms:    []string{"pregnant", "pregnancy", "trimester", "prenatal", "expecting", "gestation", "breastfeeding"},
			Reason:   "Yoga during pregnancy requires specialized prenatal guidance. Please consult with your obstetrician before starting or continuing a practice.",
		},
		{
			Category: CategoryMedicalCondition,
			Terms: []string{
				"hypertension", "glaucoma", "hernia", "ulcer", "sciatica", "slipped disc",
				"blood pressure", "heart condition", "cardiovascular", "epilepsy", "seizure",
				"diabetes", "arthritis", "osteoporosis", "asthma",
			},
			Reason: "You mentioned a specific medical condition. Certain asanas and breathing techniques can be contraindicated for your condition. Please consult a healthcare professional or a certified yoga therapist.",
		},
		{
			Category: CategoryRecentSurgery,
			Terms: []string{
				"surgery", "operation", "post-op", "recovery", "incision", "sutures",
				"rehab", "joint replacement", "spinal fusion", "stent",
			},
			Reason: "Post-operative recovery requires specific medical clearance. Please confirm with your surgeon that it is safe to begin physical activity.",
		},
	}
}

const responseTemplate = `Thank you for reaching out with your query. To ensure your well-being, I must prioritize caution:

**Safety Context:** %s

While I cannot provide medical advice or specific sequences for your situation, I can recommend some universally gentle alternatives that focus on mindfulness and relaxation:
- **Restful Stillness**: Savasana (Corpse Pose) for total physical relaxation.
- **Centering**: Balasana (Child's Pose) to soothe the nervous system.
- **Gentle Breath**: Simple, natural deep breathing without any retention.

**Recommendation:** Please consult with a healthcare professional or a certified yoga therapist who can provide a personalized assessment and safe guidance tailored to your specific needs.`
