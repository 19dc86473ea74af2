// Package academy is the Academy course assistant: it grounds a chat model on the
// course advice list and streams the model's answer back.
package academy

import (
	"strings"
)

// defaultAdviceCount is how much advice is used when nothing matches the question.
const defaultAdviceCount = 3

// CourseAdvice is the Academy's YC advice course, one lesson per entry.
var CourseAdvice = []string{
	"YC Advice #1: Launch Now - Don't wait for perfection. Launch quickly and learn from real user feedback. Early iterations are key.",
	"YC Advice #2: Build Something People Want - Focus on solving a real problem for a specific group. People will pay for solutions to their pain points.",
	"YC Advice #3: Do Things That Don't Scale - In the beginning, do everything manually to provide great experiences and learn from your users.",
	"YC Advice #4: Focus on the 90/10 Solution - Address the 10% of problems that have the biggest impact, and solve them relentlessly.",
	"YC Advice #5: Find Raving Fans - Before scaling, focus on building a small group of passionate users who genuinely love your product.",
	"YC Advice #6: Don't Panic - Every startup hits tough times. Treat failures as learning opportunities rather than setbacks.",
	"YC Advice #7: Write Code, Talk to Users - Spend your time building and talking to customers. These are the most valuable activities early on.",
	"YC Advice #8: Be Lean - Avoid wasting money on office spaces, perks, or expensive ads. Focus your spending on getting product-market fit.",
	"YC Advice #9: Growth Follows Great Products - A great product will naturally lead to growth. Make sure your product is solid before focusing on scaling.",
	"YC Advice #10: Don't Scale Prematurely - Don't scale too soon. First, make sure you have a good product and an efficient process in place.",
	"YC Advice #11: Big Numbers Don't Equal Success - High valuations don't guarantee success. Focus on building a sustainable, profitable business.",
	"YC Advice #12: Avoid Time Sinks - Don't waste time on long negotiations or partnerships that don't align with your core mission.",
	"YC Advice #13: Corporate Queries = Wasted Time - Corporate interest often leads nowhere. Politely decline and focus on your core product.",
	"YC Advice #14: Skip Most Conferences - Unless a conference directly helps you acquire customers, it's better spent building or engaging with users.",
	"YC Advice #15: Stay Nimble - Stay small and flexible in the early stages to quickly pivot based on customer feedback.",
	"YC Advice #16: Solve One Problem Brilliantly - Don't try to do everything. Focus on solving one problem exceptionally well.",
	"YC Advice #17: Build Strong Founder Relationships - Founder conflicts are a top reason startups fail. Communicate openly and regularly with co-founders.",
	"YC Advice #18: Fire Problem Customers - Don't hesitate to cut ties with customers who take up too much energy and don't add value.",
	"YC Advice #19: Ignore Competitors - Focus on solving your problems and serving your customers. Execution is more important than what your competitors are doing.",
	"YC Advice #20: Focus, Not Money - Most startups fail due to a lack of focus, not money. Stay disciplined and stick to your goals.",
	"YC Advice #21: Be Nice - Reputation matters. Treat your team, customers, and partners with respect and kindness.",
	"YC Advice #22: Sleep and Self-Care - Avoid burnout. Prioritize sleep, exercise, and mental health to stay sharp and effective.",
}

// RelevantAdvice returns the lessons whose text contains question (case-insensitive).
// When none match, the first few lessons are returned instead.
func RelevantAdvice(question string) []string {
	q := strings.ToLower(question)

	var matched []string
	for _, advice := range CourseAdvice {
		if strings.Contains(strings.ToLower(advice), q) {
			matched = append(matched, advice)
		}
	}
	if len(matched) == 0 {
		return append([]string(nil), CourseAdvice[:defaultAdviceCount]...)
	}
	return matched
}

// SystemPrompt builds the instructions sent ahead of the conversation.
func SystemPrompt(advice []string) string {
	var b strings.Builder
	b.WriteString("You are an AI startup assistant with expertise in Y Combinator's advice for founders.\n")
	b.WriteString("Be concise, practical, and helpful.\n\n")
	b.WriteString("Use the following context from our Academy courses to inform your responses:\n")
	b.WriteString(strings.Join(advice, "\n\n"))
	b.WriteString("\n\nIf the user asks something outside of your knowledge about startups or SME, politely focus the conversation ")
	b.WriteString("back to startup advice and YC principles. Always be encouraging and constructive.\n\n")
	b.WriteString("Keep responses under 3 paragraphs when possible.")
	return b.String()
}
