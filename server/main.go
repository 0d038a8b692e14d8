package server

import (
	"fmt"
	"net/http"
	"time"

	"bitbucket.org/skilr/backend/broker"
	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/db"
	"bitbucket.org/skilr/backend/feed"
	"bitbucket.org/skilr/backend/middlewares"
	"bitbucket.org/skilr/backend/models"
	"bitbucket.org/skilr/backend/session"
	_ "github.com/go-sql-driver/mysql"
	"github.com/gorilla/mux"
	"github.com/joeshaw/envdecode"
	joonix "github.com/joonix/log"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/negroni"
)

func recoveryHandler(w http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	defer func() {
		if err := recover(); err != nil {
			log.Error(err)
			(&middlewares.ResponseWriter{Writer: w}).Error(http.StatusInternalServerError, "internal server error")
			return
		}
	}()
	next(w, r)
}

type AppHandlerFunc func(*config.AppContext, *middlewares.ResponseWriter, *http.Request)

type AppHandler struct {
	Context     *config.AppContext
	HandlerFunc AppHandlerFunc
}

func (a *AppHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	a.HandlerFunc(a.Context, &middlewares.ResponseWriter{Writer: w}, r)
}

type Route struct {
	Path        string
	Handler     AppHandlerFunc
	Methods     []string
	IsProtected bool
}

func NewRouter(ctx *config.AppContext, routes []*Route) *mux.Router {
	router := mux.NewRouter()
	for _, r := range routes {
		handler := &AppHandler{Context: ctx, HandlerFunc: r.Handler}
		if r.IsProtected {
			router.Handle(r.Path, negroni.New(
				negroni.HandlerFunc(middlewares.NewJWTMiddleware([]byte(ctx.Config.JWTSecret)).HandlerNext),
				middlewares.UserMiddleware(ctx, ctx.Logins),
				negroni.Wrap(handler),
			)).Methods(r.Methods...)
		} else {
			router.Handle(r.Path, handler).Methods(r.Methods...)
		}
	}
	return router
}

func GetAppContext() *ContextWrapper {
	log.SetFormatter(joonix.NewFormatter())
	var conf config.Configuration
	if err := envdecode.Decode(&conf); err != nil {
		fmt.Println(fmt.Errorf("could not load the app configuration: %v", err))
		log.Fatal(err)
	}
	context := &config.AppContext{
		Config: conf,
	}

	contextWrapper := ContextWrapper{
		Context: context,
	}

	return &contextWrapper
}

type ContextWrapper struct {
	Context *config.AppContext
}

func (wrapper *ContextWrapper) CreateMySQLConnection() {
	conn, err := config.CreateConnectionSQL(wrapper.Context.Config.SQL)
	if err != nil {
		log.Fatal(err)
	}
	conn.SetConnMaxLifetime(time.Minute * 5)
	wrapper.Context.SQLConn = conn
	wrapper.Context.DB, err = db.New(conn)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("mysql: failed to connect")
	}
}

func (wrapper *ContextWrapper) CreateSMTPConnection() {
	conn := config.CreateNewConnectionSMTP(wrapper.Context.Config.SMTP)
	if conn == nil {
		log.Fatal(errors.Errorf("failed connecting SMTP"))
	}
	wrapper.Context.SMTP = conn
}

func (wrapper *ContextWrapper) CreatePaystackIntegration() {
	ps := config.CreatePaystackIntegration(wrapper.Context.Config.Paystack)
	if ps == nil {
		log.Fatal(errors.Errorf("failed to create paystack integration"))
	}
	wrapper.Context.Paystack = ps
}

func (wrapper *ContextWrapper) CreateLoginStore() {
	wrapper.Context.Logins = config.CreateLoginStore(wrapper.Context.Config.Redis)
}

func (wrapper *ContextWrapper) CreateKafkaProducer() {
	if !wrapper.Context.Config.Kafka.Enabled {
		log.Info("kafka disabled, payment events will not be published")
		return
	}

	producer, err := broker.NewProducer(wrapper.Context.Config.Kafka.Brokers, wrapper.Context.Config.Kafka.Topic)
	if err != nil {
		log.WithFields(log.Fields{
			"error": err,
		}).Fatal("kafka: failed to connect")
	}
	wrapper.Context.Events = producer
}

func (wrapper *ContextWrapper) CreateNewSessionS3() {
	session, err := config.CreateNewSessionS3(wrapper.Context.Config.AwsS3)
	if err != nil {
		log.Fatal(errors.Errorf("failed to create new session s3 - %s", err.Error()))
	}
	if session == nil {
		log.Fatal(errors.Errorf("nil session s3"))
	}
	wrapper.Context.AwsS3 = session
}

// CreateSessionManager wires the payment state machines to the store,
// the checkout gateway and the realtime feed. Requires the SQL and
// Paystack integrations to be up.
func (wrapper *ContextWrapper) CreateSessionManager() {
	ctx := wrapper.Context

	ctx.Payments = feed.New(func(accountID int) ([]models.Payment, error) {
		return ctx.DB.GetPaymentsByAccount(accountID)
	})

	ctx.Sessions = session.NewManager(
		ctx.DB,
		ctx.DB,
		ctx.Paystack,
		ctx.Config.Checkout.SessionManagerConfig(),
		time.Now().UnixNano(),
	)
	ctx.Sessions.SetNotify(ctx.Payments.Notify)
}

func UpServer(routes []*Route, wrapper *ContextWrapper) {
	server, err := createServer(wrapper.Context, routes)
	if err != nil {
		log.Fatal(err)
	}

	if wrapper.Context.SQLConn != nil {
		defer wrapper.Context.SQLConn.Close()
	}

	log.Info("Environment " + wrapper.Context.Config.Environment)
	log.Info("Listening on " + server.Addr)

	log.Fatal(server.ListenAndServe())
}

func createServer(context *config.AppContext, routes []*Route) (*http.Server, error) {
	n := negroni.New()
	c := cors.New(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "DELETE", "PUT", "PATCH", "HEAD"},
		AllowedHeaders: []string{"Origin", "X-Requested-With", "Content-Type", "Accept", "Authorization", "x-environment", "x-language"},
	})
	n.Use(c)
	n.UseFunc(recoveryHandler)
	n.Use(negroni.HandlerFunc(middlewares.LoggerRequest))
	n.UseHandler(NewRouter(context, routes))

	return &http.Server{
		Addr:         fmt.Sprintf(":%d", context.Config.Port),
		ReadTimeout:  time.Duration(context.Config.Timeout) * time.Second,
		WriteTimeout: time.Duration(context.Config.Timeout) * time.Second,
		Handler:      n,
	}, nil
}
