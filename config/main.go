package config

import (
	"fmt"
	"strconv"
	"time"

	"bitbucket.org/skilr/backend/broker"
	"bitbucket.org/skilr/backend/cache"
	db "bitbucket.org/skilr/backend/db"
	"bitbucket.org/skilr/backend/feed"
	"bitbucket.org/skilr/backend/paystack"
	"bitbucket.org/skilr/backend/session"
	"github.com/aws/aws-sdk-go/aws"
	awssession "github.com/aws/aws-sdk-go/aws/session"
	"github.com/jmoiron/sqlx"
	goredis "github.com/redis/go-redis/v9"
	log "github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

type Configuration struct {
	JWTSecret   string `env:"JWT_SECRET,required"`
	Port        int    `env:"PORT,default=3001"`
	Timeout     int    `env:"TIMEOUT,default=15"`
	DB          db.Storage
	SQL         database
	SMTP        smtp
	AwsS3       awsS3
	Paystack    paystackConf
	Redis       redisConf
	Kafka       kafkaConf
	Checkout    checkout
	Session     sessionConf
	Mail        mail
	Environment string `env:"ENVIRONMENT,default=development"`
	AppName     string `env:"APP_NAME,default=skilr"`
}

type database struct {
	URL            string `env:"DATA_BASE_URL,required"`
	Name           string `env:"DATA_BASE_NAME,required"`
	User           string `env:"DATA_BASE_USER,required"`
	Port           int    `env:"DATA_BASE_PORT,default=3306"`
	Password       string `env:"DATA_BASE_PASSWORD,required"`
	OpenConnection int    `env:"DATA_BASE_MAX_OPEN_CONNECTION,default=5"`
}

type smtp struct {
	SMTPHost     string `env:"SMTP_HOST,required"`
	SMTPPort     int    `env:"SMTP_PORT,required"`
	SMTPUser     string `env:"SMTP_USER,required"`
	SMTPPassword string `env:"SMTP_PASSWORD,required"`
}

type paystackConf struct {
	BaseURL        string `env:"PAYSTACK_BASEURL,default=https://api.paystack.co"`
	SecretKey      string `env:"PAYSTACK_SECRET_KEY"`
	PublicKey      string `env:"PAYSTACK_PUBLIC_KEY"`
	PathInitialize string `env:"PAYSTACK_PATH_INITIALIZE,default=/transaction/initialize"`
	PathVerify     string `env:"PAYSTACK_PATH_VERIFY,default=/transaction/verify/"`
	CallbackURL    string `env:"PAYSTACK_CALLBACK_URL"`
}

type redisConf struct {
	Addr     string `env:"REDIS_ADDR,default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,default=0"`
}

type kafkaConf struct {
	Brokers []string `env:"KAFKA_BROKERS,default=localhost:9092"`
	Topic   string   `env:"KAFKA_PAYMENT_TOPIC,default=skilr.payments"`
	Enabled bool     `env:"KAFKA_ENABLED,default=false"`
}

// checkout holds the product-configuration values of the payment flow.
// VAT rate and fee range differ between deployments, so they are knobs,
// not constants.
type checkout struct {
	VATRate   float64 `env:"CHECKOUT_VAT_RATE,default=4"`
	FeeMin    int     `env:"CHECKOUT_FEE_MIN,default=300"`
	FeeMax    int     `env:"CHECKOUT_FEE_MAX,default=600"`
	MinAmount float64 `env:"CHECKOUT_MIN_AMOUNT,default=100"`
	MaxAmount float64 `env:"CHECKOUT_MAX_AMOUNT,default=1000000"`

	SuccessDelayMS int `env:"CHECKOUT_SUCCESS_DELAY_MS,default=3000"`
	FailureDelayMS int `env:"CHECKOUT_FAILURE_DELAY_MS,default=5000"`
}

type sessionConf struct {
	MaxAgeMinutes int `env:"SESSION_MAX_AGE_MINUTES,default=60"`
}

func (c sessionConf) MaxAge() time.Duration {
	return time.Duration(c.MaxAgeMinutes) * time.Minute
}

type awsS3 struct {
	S3Region      string `env:"S3_REGION,required"`
	S3Bucket      string `env:"S3_BUCKET,required"`
	S3Url         string `env:"S3_URL,required"`
	S3PathReceipt string `env:"S3_PATH_RECEIPT,default=receipt"`
}

type mail struct {
	PaymentSuccess  mailPaymentSuccess
	PasswordRecover mailPasswordRecover
	NameFrom        string `env:"MAIL_NAME_FROM"`
	EmailFrom       string `env:"MAIL_EMAIL_FROM"`
	Folder          string `env:"MAIL_FOLDER"`
	Path            string `env:"MAIL_PATH"`
}

type mailPaymentSuccess struct {
	Subject  string `env:"MAIL_PAYMENT_SUCCESS_SUBJECT"`
	Template string `env:"MAIL_PAYMENT_SUCCESS_TEMPLATE"`
	FileName string `env:"MAIL_PAYMENT_SUCCESS_FILENAME"`
}

type mailPasswordRecover struct {
	Subject  string `env:"MAIL_PASSWORD_RECOVER_SUBJECT"`
	Template string `env:"MAIL_PASSWORD_RECOVER_TEMPLATE"`
}

type AppContext struct {
	Config   Configuration
	SQLConn  *sqlx.DB
	DB       db.Storage
	SMTP     *gomail.Dialer
	AwsS3    *awssession.Session
	Paystack *paystack.Client
	Logins   *cache.LoginStore
	Events   *broker.Producer
	Sessions *session.Manager
	Payments *feed.Hub
}

func CreateConnectionSQL(conf database) (*sqlx.DB, error) {
	conn := fmt.Sprintf("%s:%s@tcp(%s:%s)/%s?parseTime=true", conf.User, conf.Password, conf.URL, strconv.Itoa(conf.Port), conf.Name)
	connection, err := sqlx.Connect("mysql", conn)
	if err != nil {
		return nil, err
	}
	return connection, nil
}

func CreateNewConnectionSMTP(conf smtp) *gomail.Dialer {
	conn := gomail.NewDialer(conf.SMTPHost, conf.SMTPPort, conf.SMTPUser, conf.SMTPPassword)
	return conn
}

func CreatePaystackIntegration(conf paystackConf) *paystack.Client {
	ps := paystack.Client{
		BaseURL:        conf.BaseURL,
		SecretKey:      conf.SecretKey,
		PublicKey:      conf.PublicKey,
		PathInitialize: conf.PathInitialize,
		PathVerify:     conf.PathVerify,
		CallbackURL:    conf.CallbackURL,
	}

	return &ps
}

func CreateLoginStore(conf redisConf) *cache.LoginStore {
	client := goredis.NewClient(&goredis.Options{
		Addr:     conf.Addr,
		Password: conf.Password,
		DB:       conf.DB,
	})
	return cache.NewLoginStore(client)
}

func CreateNewSessionS3(conf awsS3) (*awssession.Session, error) {
	s, err := awssession.NewSession(&aws.Config{Region: aws.String(conf.S3Region)})
	return s, err
}

// SessionManagerConfig maps the checkout knobs into the state machine's
// configuration.
func (c checkout) SessionManagerConfig() session.ManagerConfig {
	return session.ManagerConfig{
		Config: session.Config{
			VATRate:      c.VATRate,
			MinAmount:    c.MinAmount,
			MaxAmount:    c.MaxAmount,
			SuccessDelay: time.Duration(c.SuccessDelayMS) * time.Millisecond,
			FailureDelay: time.Duration(c.FailureDelayMS) * time.Millisecond,
		},
		FeeMin: c.FeeMin,
		FeeMax: c.FeeMax,
	}
}

var logger *log.Entry

func SetLogger(newLogger *log.Entry) {
	logger = newLogger
}

func GetLogger() *log.Entry {
	if logger == nil {
		return log.NewEntry(log.StandardLogger())
	}
	return logger
}
