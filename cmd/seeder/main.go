package main

import (
	"context"
	"flag"
	"log/slog"
	"os"

	appsage "github.com/appsage/appsage"
	"github.com/appsage/appsage/core"
	"github.com/appsage/appsage/ingest"
	"github.com/appsage/appsage/store"
)

// sampleInsights is a small hand-written corpus for local experiments when
// no generated insights file is available.
var sampleInsights = []seedInsight{
	{"Games account for 68% of app revenue but only 22% of downloads, pointing to far stronger monetization per install than any other category.", "GAME", 92, "revenue_by_category", []string{"games", "revenue", "monetization"}, []string{"Prioritize in-app purchase tuning for game titles before optimizing acquisition spend."}},
	{"Productivity apps with a free tier convert 3.4x more trial users to paid plans than those gated behind an upfront price.", "PRODUCTIVITY", 85, "conversion_by_pricing_model", []string{"productivity", "pricing", "freemium"}, []string{"Ship a permanently free tier with a clearly marked upgrade path."}},
	{"Apps updated at least twice a month hold a median rating of 4.3 stars, a full half star above apps updated quarterly.", "", 78, "rating_by_update_cadence", []string{"updates", "ratings", "cadence"}, []string{"Commit to a biweekly release train even for minor fixes."}},
	{"Photo and video apps see 81% of their installs from users under 30, the most age-skewed category in the store.", "PHOTO_VIDEO", 70, "installs_by_age_bracket", []string{"photo", "video", "demographics"}, nil},
	{"Subscription apps that offer an annual plan capture 41% more lifetime value per subscriber than monthly-only apps.", "", 88, "ltv_by_billing_period", []string{"subscriptions", "ltv", "pricing"}, []string{"Introduce an annual plan discounted 30-40% against twelve monthly payments."}},
	{"Finance apps with biometric login enabled retain 57% of users at day 30, versus 31% for PIN-only competitors.", "FINANCE", 82, "retention_by_auth_method", []string{"finance", "retention", "biometrics"}, []string{"Make biometric authentication the default sign-in path."}},
	{"Apps localized into five or more languages grow international downloads 2.6x faster than English-only releases.", "", 75, "growth_by_localization", []string{"localization", "growth", "international"}, []string{"Localize store listings before localizing the app itself; listings drive the first conversion."}},
	{"Health and fitness apps spike to 3x baseline downloads every January, but only those with onboarding streaks keep the cohort past February.", "HEALTH_FITNESS", 80, "seasonal_download_pattern", []string{"health", "seasonality", "retention"}, []string{"Launch streak-based onboarding ahead of the January surge."}},
	{"Casual games monetizing through rewarded video keep 22% more day-7 players than interstitial-heavy titles.", "GAME", 84, "retention_by_ad_format", []string{"games", "ads", "rewarded-video"}, []string{"Replace forced interstitials with opt-in rewarded placements."}},
	{"App listings with a preview video convert store page views to installs at 27%, nearly double the rate of static-screenshot listings.", "", 77, "conversion_by_listing_media", []string{"store-listing", "video", "conversion"}, []string{"Produce a 20-second preview video showing the core loop within the first five seconds."}},
	{"Education apps priced between $2.99 and $4.99 outsell both cheaper and more expensive competitors in unit volume.", "EDUCATION", 68, "sales_by_price_band", []string{"education", "pricing"}, nil},
	{"Shopping apps sending no more than two push notifications a week see 19% fewer uninstalls than daily-notification peers.", "SHOPPING", 73, "uninstalls_by_push_frequency", []string{"shopping", "push", "uninstalls"}, []string{"Cap promotional pushes at two per week and reserve extra sends for transactional events."}},
}

type seedInsight struct {
	text            string
	category        string
	impactScore     float64
	sourceStat      string
	tags            []string
	recommendations []string
}

var (
	dbPath       = flag.String("db", "./insights_db", "path to BadgerDB database directory")
	seedFileName = flag.String("src", "", "insights JSON file to seed from instead of the built-in samples")
)

func init() {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})
	slog.SetDefault(slog.New(handler))
	flag.Parse()
}

// builtinInsights converts the sample corpus into insight records. IDs are
// content fingerprints so reseeding in merge mode is a no-op.
func builtinInsights() []*core.Insight {
	insights := make([]*core.Insight, 0, len(sampleInsights))
	for _, s := range sampleInsights {
		insights = append(insights, &core.Insight{
			Id:              core.IDFromContent(s.text),
			Text:            s.text,
			Category:        s.category,
			ImpactScore:     s.impactScore,
			SourceStat:      s.sourceStat,
			Tags:            s.tags,
			Recommendations: s.recommendations,
		})
	}
	return insights
}

func main() {
	engine, err := appsage.NewEngine(*dbPath)
	if err != nil {
		panic(err)
	}
	defer engine.Close()

	pipeline, err := engine.NewIngestPipeline(ingest.WithProgress(os.Stderr))
	if err != nil {
		panic(err)
	}
	defer pipeline.Release()

	ctx := context.Background()

	var insights []*core.Insight
	if *seedFileName != "" {
		insights, err = store.LoadFile(*seedFileName)
		if err != nil {
			panic(err)
		}
	} else {
		insights = builtinInsights()
	}

	if err := pipeline.Run(ctx, insights); err != nil {
		panic(err)
	}

	indexed, err := engine.Reindex(ctx)
	if err != nil {
		panic(err)
	}
	slog.Info("seeded corpus", "insights", indexed)
}
