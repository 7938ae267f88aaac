package program

import "math/rand"

// WarmUp is a short preparatory drill.
type WarmUp struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Warm-up categories.
const (
	WarmUpStrength     = "Strength"
	WarmUpConditioning = "Conditioning"
	WarmUpRest         = "Rest"
)

var warmUps = map[string][]WarmUp{
	WarmUpStrength: {
		{"Leg Swings", "2x10/leg, swing leg forward-backward to improve hip mobility for squats and deadlifts. Keep core braced."},
		{"Arm Circles", "2x10/arm, forward and backward, to warm up shoulders for pull-ups or cleans. Controlled motion."},
		{"Bodyweight Squats", "2x15, slow tempo to activate quads, glutes, hamstrings. Focus on depth and form."},
		{"Dynamic Hamstring Stretch", "2x10/leg, lunge forward and straighten leg to stretch hamstrings. Preps for deadlifts."},
		{"Scapular Push-Ups", "2x12, on hands and knees, retract/protract shoulders to prime upper back for pulls."},
	},
	WarmUpConditioning: {
		{"Shrimping", "2x10/side, BJJ-specific hip escape movement to warm up hips and core for sprints or ropes."},
		{"High Knees", "2x20 sec, fast-paced to elevate heart rate and prep for conditioning. Keep arms pumping."},
		{"Butt Kicks", "2x20 sec, jog while kicking heels to glutes to warm up hamstrings for sprints."},
		{"Lateral Lunges", "2x10/side, step side-to-side to activate hips and adductors for agility drills."},
		{"Mountain Climbers", "2x20 sec, fast-paced to warm up core and shoulders for conditioning intensity."},
	},
	WarmUpRest: {
		{"Cat-Cow Stretch", "2x10, flow between arched and rounded spine to improve spinal mobility and recovery."},
		{"Foam Rolling", "5 min, target quads, hamstrings, or back to release tightness. Slow, controlled pressure."},
		{"Child's Pose", "2x30 sec, stretch hips and lower back for recovery. Breathe deeply."},
		{"Seated Forward Fold", "2x30 sec, stretch hamstrings and lower back. Keep spine long, avoid rounding."},
		{"Neck Rolls", "2x10/side, gentle circles to release neck tension. Move slowly to avoid strain."},
	},
}

// RecoveryBehavior is a suggested habit for rest days.
type RecoveryBehavior struct {
	Behavior  string `json:"behavior"`
	Reason    string `json:"reason"`
	Mechanism string `json:"mechanism"`
	Barrier   string `json:"barrier"`
}

// RecoveryBehaviors lists the rest-day habits.
var RecoveryBehaviors = []RecoveryBehavior{
	{"Active Recovery Walk", "Reduces soreness, improves mood.", "Low-intensity movement aids lactate clearance.", "Lack of time; schedule 15-min walk with podcast."},
	{"Foam Rolling", "Relieves tightness, enhances flexibility.", "Myofascial release improves range of motion.", "Discomfort; start with soft rollers, 5-min sessions."},
	{"Hydration Focus", "Prevents fatigue, supports repair.", "Water maintains cellular function.", "Forgetting to drink; keep water bottle nearby."},
	{"Sleep Optimization", "Accelerates recovery, hormonal balance.", "Deep sleep triggers growth hormone.", "Busy schedule; avoid screens before bed."},
	{"Static Stretching", "Improves flexibility, reduces injury risk.", "Lengthens muscle fibers.", "Boredom; pair with music, 10-min sessions."},
}

// Quotes are shown alongside the daily plan.
var Quotes = []string{
	"Strength is Earned, Not Given",
	"Lift Heavy, Live Bold",
	"Push Through, Power Up",
	"No Excuses, Just Results",
	"Grind Now, Glory Later",
	"Dominate the Bar, Conquer the Mats",
	"Grind Hard, Win Easy",
	"Power Through, PR Awaits",
}

// WarmUpCategory picks the warm-up category for a day. An empty day name
// means a rest day.
func WarmUpCategory(day string) string {
	switch {
	case day == "":
		return WarmUpRest
	case IsConditioningDay(day):
		return WarmUpConditioning
	}
	return WarmUpStrength
}

// SampleWarmUps returns n distinct warm-ups from category, chosen with rng.
// Unknown categories yield nil.
func SampleWarmUps(rng *rand.Rand, category string, n int) []WarmUp {
	pool := warmUps[category]
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]WarmUp, 0, n)
	for _, i := range rng.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}

// RandomQuote returns one of Quotes.
func RandomQuote(rng *rand.Rand) string {
	return Quotes[rng.Intn(len(Quotes))]
}
