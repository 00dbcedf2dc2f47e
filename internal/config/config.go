package config // package config loads application configuration from environment variables

import (
    "log"      // log is used to report configuration errors and halt execution
    "os"       // os provides access to environment variables
    "strconv"  // strconv converts strings to other types
    "strings"  // strings splits the comma-separated origin list
)

// Config holds all runtime configuration values.  Each field corresponds to
// an environment variable.  The types reflect how the values are used in
// the application: strings for identifiers and secrets, ints for durations,
// and a slice for the CORS origin allowlist.
type Config struct {
    Env                  string   // application environment (e.g. "development", "production")
    Port                 string   // HTTP port to listen on
    AppName              string   // product name used in outbound mail and the health payload
    DBUser               string   // database username
    DBPass               string   // database password (optional)
    DBHost               string   // database host address
    DBPort               string   // database port number
    DBName               string   // database name
    JWTSecret            string   // secret used to sign JWTs
    JWTExpiresInMin      int      // access token time‑to‑live in minutes
    OTPExpiryMinutes     int      // validity window for one-time codes, in minutes
    OTPResendCooldownSec int      // minimum seconds between OTP issuances for one email
    AllowedOrigins       []string // origins permitted by the CORS policy
    SMTPHost             string   // mail gateway host
    SMTPPort             string   // mail gateway port
    SMTPUser             string   // mail gateway username (also the From address)
    SMTPPassword         string   // mail gateway password
}

// Load reads configuration values from environment variables and returns a
// Config.  Required variables are enforced by must() and missing values
// cause the program to exit with a fatal log message.  Validation happens
// here, once, before the HTTP listener binds: the rest of the application
// assumes configuration is already well-formed.
func Load() Config {
    cfg := Config{
        Env:                  must("APP_ENV"),              // environment (development/production)
        Port:                 must("APP_PORT"),             // port to bind the HTTP server
        AppName:              getenv("APP_NAME", "astrivya"),
        DBUser:               must("DB_USER"),              // database user
        DBPass:               os.Getenv("DB_PASS"),         // database password (empty allowed)
        DBHost:               must("DB_HOST"),              // database host
        DBPort:               must("DB_PORT"),              // database port
        DBName:               must("DB_NAME"),              // database name
        JWTSecret:            must("JWT_SECRET"),           // secret used for signing JWTs
        JWTExpiresInMin:      mustInt("JWT_EXPIRES_IN_MIN"),
        OTPExpiryMinutes:     mustInt("OTP_EXPIRY_MINUTES"),
        OTPResendCooldownSec: envInt("OTP_RESEND_COOLDOWN_SECONDS", 60),
        AllowedOrigins:       splitOrigins(must("ALLOWED_ORIGINS")),
        SMTPHost:             must("SMTP_HOST"),
        SMTPPort:             must("SMTP_PORT"),
        SMTPUser:             must("SMTP_USER"),
        SMTPPassword:         must("SMTP_PASSWORD"),
    }
    // A zero or negative expiry window would produce codes that are born
    // dead.  Refuse to start rather than fail on the first request.
    if cfg.OTPExpiryMinutes <= 0 {
        log.Fatalf("OTP_EXPIRY_MINUTES must be a positive integer, got %d", cfg.OTPExpiryMinutes)
    }
    if cfg.OTPResendCooldownSec < 0 {
        log.Fatalf("OTP_RESEND_COOLDOWN_SECONDS must not be negative, got %d", cfg.OTPResendCooldownSec)
    }
    if len(cfg.JWTSecret) < 32 {
        log.Printf("warning: JWT_SECRET is shorter than 32 characters; use a stronger secret")
    }
    return cfg
}

// IsDevelopment reports whether the service runs in development mode, which
// relaxes the CORS policy and includes error detail in 500 responses.
func (c Config) IsDevelopment() bool {
    return c.Env == "development" || c.Env == "dev"
}

// splitOrigins turns the comma-separated ALLOWED_ORIGINS value into a slice,
// trimming whitespace and dropping empty entries.
func splitOrigins(s string) []string {
    var out []string
    for _, o := range strings.Split(s, ",") {
        if o = strings.TrimSpace(o); o != "" {
            out = append(out, o)
        }
    }
    return out
}

// must retrieves the value of a required environment variable.  If the
// variable is unset or empty, the application logs a fatal error and exits.
func must(key string) string {
    v, ok := os.LookupEnv(key)
    if !ok || v == "" {
        log.Fatalf("missing required env var: %s", key)
    }
    return v
}

// mustInt is like must() but converts the retrieved string into an integer.
// If conversion fails, the application logs a fatal error and exits.
func mustInt(key string) int {
    s := must(key)
    n, err := strconv.Atoi(s)
    if err != nil {
        log.Fatalf("invalid int for %s: %q", key, s)
    }
    return n
}
