package httpserver

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	"ministry_hub/internal/activity"
	"ministry_hub/internal/auth"
	"ministry_hub/internal/authz"
	"ministry_hub/internal/blob"
	"ministry_hub/internal/http/handlers"
	"ministry_hub/internal/models"
	"ministry_hub/internal/obs"
	"ministry_hub/internal/store"
)

// Deps are the collaborators the router wires into handlers.
type Deps struct {
	DB        *gorm.DB
	JWTSecret string
	TokenTTL  time.Duration
	Blob      blob.Store
	Hub       *activity.Hub
	Log       *slog.Logger

	LoginRatePerSec float64
	LoginBurst      int

	// Now defaults to time.Now; meeting generation counts its horizon from it.
	Now func() time.Time
}

func NewRouter(d Deps) (*gin.Engine, error) {
	if err := handlers.RegisterValidators(); err != nil {
		return nil, err
	}
	if d.Now == nil {
		d.Now = time.Now
	}
	if d.Hub == nil {
		d.Hub = activity.NewHub()
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.LoginRatePerSec <= 0 {
		d.LoginRatePerSec = 1
	}
	if d.LoginBurst <= 0 {
		d.LoginBurst = 5
	}
	db := d.DB
	rec := &activity.Recorder{DB: db, Hub: d.Hub, Log: d.Log}

	obs.Init()
	r := gin.New()
	r.Use(gin.Recovery(), obs.RequestID(), obs.LogRequests(d.Log), obs.Instrument())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(obs.Handler()))

	// Public routes
	r.POST("/api/v1/auth/login", RateLimit(d.LoginRatePerSec, d.LoginBurst), handlers.LoginHandler(db, d.JWTSecret, d.TokenTTL))
	r.POST("/api/v1/auth/logout", handlers.LogoutHandler())

	api := r.Group("/api/v1", auth.JWT(db, d.JWTSecret))
	{
		api.GET("/me", handlers.MeHandler())
		api.POST("/me/password", handlers.ChangeOwnPassword(db))

		// Ministries
		ministry := handlers.Load(db, "id", store.Typed(store.LoadMinistry))
		api.GET("/ministries", require(authz.KindMinistry, authz.ActionList), handlers.ListMinistries(db))
		api.POST("/ministries", handlers.CreateMinistry(db, rec))
		api.GET("/ministries/:id", ministry, require(authz.KindMinistry, authz.ActionView), handlers.GetMinistry())
		api.PUT("/ministries/:id", ministry, require(authz.KindMinistry, authz.ActionEdit), handlers.UpdateMinistry(db, rec))
		api.DELETE("/ministries/:id", ministry, require(authz.KindMinistry, authz.ActionDelete), handlers.DeleteMinistry(db, rec))

		// Users
		user := handlers.Load(db, "id", store.Typed(store.LoadUser))
		api.GET("/users", require(authz.KindUser, authz.ActionList), handlers.ListUsers(db))
		api.POST("/users", handlers.CreateUser(db, rec))
		api.GET("/users/:id", user, require(authz.KindUser, authz.ActionView), handlers.GetUser())
		api.PUT("/users/:id", user, require(authz.KindUser, authz.ActionEdit), handlers.UpdateUser(db, rec))
		api.POST("/users/:id/activate", user, require(authz.KindUser, authz.ActionManage), handlers.SetUserStatus(db, rec, models.UserActive))
		api.POST("/users/:id/deactivate", user, require(authz.KindUser, authz.ActionManage), handlers.SetUserStatus(db, rec, models.UserSuspended))
		api.POST("/users/:id/password", user, require(authz.KindUser, authz.ActionManage), handlers.ResetPassword(db, rec))
		api.PUT("/users/:id/ministries", user, require(authz.KindUser, authz.ActionManage), handlers.SetUserMinistries(db, rec))

		// Members
		member := handlers.Load(db, "id", store.Typed(store.LoadMember))
		api.GET("/members", require(authz.KindMember, authz.ActionList), handlers.ListMembers(db))
		api.POST("/members", handlers.CreateMember(db, rec))
		api.GET("/members/:id", member, require(authz.KindMember, authz.ActionView), handlers.GetMember())
		api.PUT("/members/:id", member, require(authz.KindMember, authz.ActionEdit), handlers.UpdateMember(db, rec))
		api.DELETE("/members/:id", member, require(authz.KindMember, authz.ActionDelete), handlers.DeleteMember(db, rec))

		// Small groups
		group := handlers.Load(db, "id", store.Typed(store.LoadSmallGroup))
		api.GET("/small-groups", require(authz.KindSmallGroup, authz.ActionList), handlers.ListSmallGroups(db))
		api.POST("/small-groups", handlers.CreateSmallGroup(db, rec, d.Now))
		api.GET("/small-groups/:id", group, require(authz.KindSmallGroup, authz.ActionView), handlers.GetSmallGroup())
		api.PUT("/small-groups/:id", group, require(authz.KindSmallGroup, authz.ActionEdit), handlers.UpdateSmallGroup(db, rec))
		api.DELETE("/small-groups/:id", group, require(authz.KindSmallGroup, authz.ActionDelete), handlers.DeleteSmallGroup(db, rec))
		api.PUT("/small-groups/:id/leaders", group, require(authz.KindSmallGroup, authz.ActionManageLeaders), handlers.SetSmallGroupLeaders(db, rec))
		api.PUT("/small-groups/:id/members", group, require(authz.KindSmallGroup, authz.ActionManageParticipants), handlers.SetSmallGroupMembers(db, rec))
		api.GET("/small-groups/:id/meetings", group, require(authz.KindSmallGroup, authz.ActionView), handlers.ListGroupMeetings(db))
		api.POST("/small-groups/:id/meetings", group, require(authz.KindSmallGroup, authz.ActionManage), handlers.AddGroupMeeting(db, rec))
		api.GET("/small-groups/:id/stats", group, require(authz.KindSmallGroup, authz.ActionViewStats), handlers.SmallGroupStats(db))

		// Meetings
		meeting := handlers.Load(db, "id", store.Typed(store.LoadMeeting))
		api.GET("/meetings/:id", meeting, require(authz.KindMeeting, authz.ActionView), handlers.GetMeeting(db))
		api.PUT("/meetings/:id", meeting, require(authz.KindMeeting, authz.ActionEdit), handlers.UpdateMeeting(db, rec))
		api.PUT("/meetings/:id/attendance", meeting, require(authz.KindMeeting, authz.ActionManageParticipants), handlers.RecordAttendance(db, rec))
		api.DELETE("/meetings/:id", meeting, require(authz.KindMeeting, authz.ActionDelete), handlers.DeleteMeeting(db, rec))

		// Events
		event := handlers.Load(db, "id", store.Typed(store.LoadEvent))
		api.GET("/events", require(authz.KindEvent, authz.ActionList), handlers.ListEvents(db))
		api.POST("/events", handlers.CreateEvent(db, rec))
		api.GET("/events/:id", event, require(authz.KindEvent, authz.ActionView), handlers.GetEvent())
		api.PUT("/events/:id", event, require(authz.KindEvent, authz.ActionEdit), handlers.UpdateEvent(db, rec))
		api.DELETE("/events/:id", event, require(authz.KindEvent, authz.ActionDelete), handlers.DeleteEvent(db, rec))
		api.PATCH("/events/:id/status", event, require(authz.KindEvent, authz.ActionChangeStatus), handlers.ChangeEventStatus(db, rec))
		api.PUT("/events/:id/leaders", event, require(authz.KindEvent, authz.ActionManageLeaders), handlers.SetEventLeaders(db, rec))
		api.GET("/events/:id/stats", event, require(authz.KindEvent, authz.ActionViewStats), handlers.EventStats(db))

		api.POST("/events/:id/register", event, require(authz.KindEvent, authz.ActionRegister), handlers.RegisterSelf(db, rec))
		api.GET("/events/:id/registrations", event, require(authz.KindEvent, authz.ActionManageRegistrations), handlers.ListRegistrations(db))
		api.POST("/events/:id/registrations", event, require(authz.KindEvent, authz.ActionManageRegistrations), handlers.AddRegistration(db, rec))
		api.DELETE("/events/:id/registrations/:registrationId", event, require(authz.KindEvent, authz.ActionManageRegistrations), handlers.CancelRegistration(db, rec))

		api.POST("/events/:id/feedback", event, require(authz.KindEvent, authz.ActionFeedback), handlers.GiveFeedback(db, rec))
		api.GET("/events/:id/feedback", event, require(authz.KindEvent, authz.ActionViewStats), handlers.ListFeedback(db))

		api.GET("/events/:id/finances", event, require(authz.KindEvent, authz.ActionManageFinances), handlers.ListEventTransactions(db))
		api.POST("/events/:id/finances", event, require(authz.KindEvent, authz.ActionManageFinances), handlers.CreateEventTransaction(db, rec))

		api.GET("/events/:id/materials", event, require(authz.KindEvent, authz.ActionView), handlers.ListMaterials(db))
		api.POST("/events/:id/materials", event, require(authz.KindEvent, authz.ActionManageMaterials), handlers.UploadMaterial(db, d.Blob, rec))
		api.GET("/events/:id/materials/:materialId", event, require(authz.KindEvent, authz.ActionView), handlers.DownloadMaterial(db, d.Blob))
		api.DELETE("/events/:id/materials/:materialId", event, require(authz.KindEvent, authz.ActionManageMaterials), handlers.DeleteMaterial(db, d.Blob, rec))

		// Finances
		txn := handlers.Load(db, "id", store.Typed(store.LoadTransaction))
		api.GET("/finances", require(authz.KindFinance, authz.ActionList), handlers.ListTransactions(db))
		api.POST("/finances", handlers.CreateTransaction(db, rec))
		api.GET("/finances/:id", txn, require(authz.KindFinance, authz.ActionView), handlers.GetTransaction())
		api.PUT("/finances/:id", txn, require(authz.KindFinance, authz.ActionEdit), handlers.UpdateTransaction(db, rec))
		api.DELETE("/finances/:id", txn, require(authz.KindFinance, authz.ActionDelete), handlers.DeleteTransaction(db, rec))

		// Activity trail
		api.GET("/activity", activity.List(db))
		api.GET("/ws/activity", activity.Stream(d.Hub))
	}

	return r, nil
}

func require(kind authz.Kind, action authz.Action) gin.HandlerFunc {
	return handlers.Require(kind, action)
}
