// ABOUTME: Research agent variant: market news summaries for borrowers.
// ABOUTME: Consults the read-only news fetcher; emits no actions.

package agent

import (
	"context"
	"fmt"
	"strings"
)

// ResearchAgent summarizes market news. It is the one variant whose
// replies never request side effects.
type ResearchAgent struct {
	desc Descriptor
	news NewsFetcher
}

// NewResearchAgent creates the builtin research variant.
func NewResearchAgent(news NewsFetcher) *ResearchAgent {
	return &ResearchAgent{
		desc: Descriptor{
			ID:          "research-agent",
			DisplayName: "Research Agent",
			Persona:     "Macro and private-credit news analyst.",
			Tags:        []string{"research", "news"},
		},
		news: news,
	}
}

func (a *ResearchAgent) Descriptor() Descriptor { return a.desc }

func (a *ResearchAgent) Process(ctx context.Context, text string) (string, []Action, error) {
	if !containsAny(text, "news", "research", "headline", "report", "sentiment") {
		return "I'm the research agent. Ask me for the latest news, headlines, " +
			"or sentiment on the credit markets.", nil, nil
	}

	headlines, err := a.news.TopHeadlines(ctx, 3)
	if err != nil || len(headlines) == 0 {
		return "The news feed is quiet right now; I'll flag anything notable " +
			"as soon as it lands.", nil, nil
	}

	var b strings.Builder
	b.WriteString("Top stories on the credit markets:\n")
	for i, h := range headlines {
		fmt.Fprintf(&b, "%d. %s (%s, sentiment %+.2f)\n", i+1, h.Title, h.Source, h.Sentiment)
	}
	return b.String(), nil, nil
}
