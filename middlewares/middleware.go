package middlewares

import (
	"context"
	"net/http"
	"strings"

	"bitbucket.org/skilr/backend/cache"
	"bitbucket.org/skilr/backend/config"
	"bitbucket.org/skilr/backend/db"
	"bitbucket.org/skilr/backend/helpers"
	"bitbucket.org/skilr/backend/models"
	"github.com/dgrijalva/jwt-go"
	jwtmiddleware "github.com/mfuentesg/go-jwtmiddleware"
	"github.com/mitchellh/mapstructure"
	log "github.com/sirupsen/logrus"

	"github.com/urfave/negroni"
)

func jwtErrorHandler(w http.ResponseWriter, _ *http.Request, err error) {
	r := &ResponseWriter{Writer: w}
	if err.Error() == "Token is expired" {
		r.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"), WithErrorType(1))
		return
	}
	if err != nil {
		r.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
	}
}

func NewJWTMiddleware(secret []byte) *jwtmiddleware.Middleware {
	return jwtmiddleware.New(
		jwtmiddleware.WithErrorHandler(jwtErrorHandler),
		jwtmiddleware.WithSigningMethod(jwt.SigningMethodHS256),
		jwtmiddleware.WithSignKey(secret),
		jwtmiddleware.WithUserProperty("_jwt-token"),
	)
}

func LoggerRequest(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
	requestLogger := log.WithFields(log.Fields{"request_id": r.Header.Get("X-Request-ID"), "query": r.URL.Query(), "host": r.Host, "url": r.URL.Path})
	requestLogger.Info("logger_request")
	config.SetLogger(requestLogger)
	next(rw, r)
}

// UserMiddleware decodes the token payload into the request context and
// applies the soft session-expiry check: a login timestamp older than
// the configured max age rejects the request, no stored timestamp means
// no enforcement.
func UserMiddleware(appCtx *config.AppContext, logins *cache.LoginStore) negroni.HandlerFunc {
	return negroni.HandlerFunc(func(rw http.ResponseWriter, r *http.Request, next http.HandlerFunc) {
		authorization := r.Header.Get("Authorization")
		if len(authorization) == 0 {
			authorization = r.URL.Query().Get("token")
			r.Header.Set("Authorization", authorization)
		}
		token := strings.Split(authorization, " ")
		if len(token) == 2 {
			tokenString := token[1]
			data, _ := helpers.ParserTokenUnverified(tokenString)
			tokenParse, ok := data["u"].(map[string]interface{})
			if ok {
				id := tokenParse["i"]
				roles := tokenParse["r"]
				email := tokenParse["email"]
				dataInfo := models.InfoUser{}
				_data := map[string]interface{}{
					"ID":    id,
					"Roles": roles,
				}
				mapstructure.Decode(_data, &dataInfo)
				isAdmin := helpers.Contains(dataInfo.Roles, db.ConstRoles.Admin)
				isClient := helpers.Contains(dataInfo.Roles, db.ConstRoles.Client)

				if !isAdmin && !isClient {
					a := &ResponseWriter{Writer: rw}
					a.Error(http.StatusUnauthorized, "unauthorized", WithErrorScope("token"))
					return
				}

				if logins != nil {
					expired, err := logins.Expired(r.Context(), dataInfo.ID, appCtx.Config.Session.MaxAge())
					if err != nil {
						log.WithFields(log.Fields{
							"account_id": dataInfo.ID,
							"error":      err,
						}).Error("failed checking session expiry")
					}
					if expired {
						a := &ResponseWriter{Writer: rw}
						a.Error(http.StatusUnauthorized, "session expired", WithErrorScope("session"), WithErrorType(1))
						return
					}
				}

				userData := map[string]interface{}{
					"Email":    email,
					"ID":       id,
					"IsAdmin":  isAdmin,
					"IsClient": isClient,
					"Roles":    roles,
				}
				ctx := context.WithValue(r.Context(), string("user"), userData)
				next(rw, r.WithContext(ctx))
				return
			}
		}
		next(rw, r)
	})
}
