package permissions

// Catalog identifiers shared with the web client.
const (
	ReadAPI  Permission = "read:api"
	WriteAPI Permission = "write:api"

	ExercisesRead    Permission = "exercises:read"
	ExercisesReadAll Permission = "exercises:read:all"
	ExercisesCreate  Permission = "exercises:create"
	ExercisesUpdate  Permission = "exercises:update"
	ExercisesDelete  Permission = "exercises:delete"
	ExercisesShare   Permission = "exercises:share"

	VideosAnalyze      Permission = "videos:analyze"
	VideosAnalyzeLong  Permission = "videos:analyze:long"
	VideosAnalyzeBatch Permission = "videos:analyze:batch"
	VideosPriority     Permission = "videos:priority"

	SessionsCreate   Permission = "sessions:create"
	SessionsAdapt    Permission = "sessions:adapt"
	SessionsTemplate Permission = "sessions:template"
	SessionsShare    Permission = "sessions:share"

	MatchesCreate  Permission = "matches:create"
	MatchesPremium Permission = "matches:premium"
	MatchesContact Permission = "matches:contact"

	ExportPDF    Permission = "export:pdf"
	ExportVideo  Permission = "export:video"
	ShareLibrary Permission = "share:library"

	AdminUsers     Permission = "admin:users"
	AdminExercises Permission = "admin:exercises"
	AdminMatches   Permission = "admin:matches"
	AdminAnalytics Permission = "admin:analytics"
	AdminBilling   Permission = "admin:billing"
	AdminAuth0     Permission = "admin:auth0"
	CoachCertified Permission = "coach:certified"
)

func init() {
	defs := []*Definition{
		{ID: ReadAPI, Module: "base", Description: "Read access to the API"},
		{ID: WriteAPI, Module: "base", DependsOn: []Permission{ReadAPI}, Description: "Write access to the API"},

		{ID: ExercisesRead, Module: "exercises", DependsOn: []Permission{ReadAPI}, Description: "Browse own and public exercises"},
		{ID: ExercisesReadAll, Module: "exercises", DependsOn: []Permission{ExercisesRead}, Description: "Browse the full exercise library"},
		{ID: ExercisesCreate, Module: "exercises", DependsOn: []Permission{ExercisesRead, WriteAPI}, Description: "Create exercises"},
		{ID: ExercisesUpdate, Module: "exercises", DependsOn: []Permission{ExercisesRead, WriteAPI}, Description: "Edit any exercise"},
		{ID: ExercisesDelete, Module: "exercises", DependsOn: []Permission{ExercisesRead, WriteAPI}, Description: "Delete any exercise"},
		{ID: ExercisesShare, Module: "exercises", DependsOn: []Permission{ExercisesRead}, Description: "Share exercises with other coaches"},

		{ID: VideosAnalyze, Module: "videos", DependsOn: []Permission{ReadAPI}, Description: "Analyze short training videos"},
		{ID: VideosAnalyzeLong, Module: "videos", DependsOn: []Permission{VideosAnalyze}, Description: "Analyze long videos"},
		{ID: VideosAnalyzeBatch, Module: "videos", DependsOn: []Permission{VideosAnalyzeLong}, Description: "Submit videos for batch analysis"},
		{ID: VideosPriority, Module: "videos", DependsOn: []Permission{VideosAnalyze}, Description: "Priority processing queue"},

		{ID: SessionsCreate, Module: "sessions", DependsOn: []Permission{WriteAPI}, Description: "Plan training sessions"},
		{ID: SessionsAdapt, Module: "sessions", DependsOn: []Permission{SessionsCreate}, Description: "Adapt sessions automatically"},
		{ID: SessionsTemplate, Module: "sessions", DependsOn: []Permission{SessionsCreate}, Description: "Save sessions as templates"},
		{ID: SessionsShare, Module: "sessions", DependsOn: []Permission{SessionsCreate}, Description: "Share sessions"},

		{ID: MatchesCreate, Module: "matches", DependsOn: []Permission{WriteAPI}, Description: "Publish friendly matches and tournaments"},
		{ID: MatchesPremium, Module: "matches", DependsOn: []Permission{MatchesCreate}, Description: "Highlighted match listings"},
		{ID: MatchesContact, Module: "matches", DependsOn: []Permission{ReadAPI}, Description: "Contact match organisers"},

		{ID: ExportPDF, Module: "export", DependsOn: []Permission{ReadAPI}, Description: "Export sessions and exercises as PDF"},
		{ID: ExportVideo, Module: "export", DependsOn: []Permission{ExportPDF}, Description: "Export animated exercise videos"},
		{ID: ShareLibrary, Module: "export", DependsOn: []Permission{ExercisesShare}, Description: "Publish a shared exercise library"},

		{ID: AdminUsers, Module: "admin", Description: "Manage user accounts"},
		{ID: AdminExercises, Module: "admin", Description: "Moderate exercises"},
		{ID: AdminMatches, Module: "admin", Description: "Moderate matches"},
		{ID: AdminAnalytics, Module: "admin", Description: "View platform analytics"},
		{ID: AdminBilling, Module: "admin", Description: "Manage subscriptions and billing"},
		{ID: AdminAuth0, Module: "admin", Description: "Manage identity provider settings"},
		{ID: CoachCertified, Module: "coach", Description: "Certified coach badge"},
	}

	for _, def := range defs {
		if err := Register(def); err != nil {
			panic(err)
		}
	}
}
