// Package mockapi is an in-process stand-in for the Curnce backend. It issues
// real HS256 tokens, rotates refresh tokens and lets tests expire sessions on
// demand.
package mockapi

import (
	"crypto/rand"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"

	"github.com/curnce/curnce-client/users"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"golang.org/x/crypto/bcrypt"
)

// ErrUserExists is returned by AddUser when the email is already registered.
var ErrUserExists = errors.New("user already exists")

// DefaultTwoFactorCode is the code every two-factor user is expected to send.
const DefaultTwoFactorCode = "123456"

// User is an account known to the mock backend.
type User struct {
	users.User
	PasswordHash []byte
	TwoFactor    bool
}

type Server struct {
	router     *mux.Router
	routes     []string
	log        zerolog.Logger
	signingKey []byte

	mu            sync.Mutex
	users         map[string]*User  // by lower-case email
	refreshTokens map[string]string // refresh token -> user ID
	preAuth       map[string]string // pre-auth token -> user ID
	activeAccess  map[string]string // access token jti -> user ID
	failRefresh   bool
	calls         map[string]int
	uploads       []Upload
	journal       []map[string]any
}

// Upload records a support attachment the server received.
type Upload struct {
	TicketID string
	Filename string
	Size     int64
}

type Option func(*Server)

func WithLogger(l zerolog.Logger) Option {
	return func(s *Server) {
		s.log = l
	}
}

// WithSigningKey fixes the HS256 key; by default a random key is generated.
func WithSigningKey(key []byte) Option {
	return func(s *Server) {
		s.signingKey = key
	}
}

func New(opts ...Option) *Server {
	s := &Server{
		router:        mux.NewRouter(),
		log:           log.Logger,
		users:         make(map[string]*User),
		refreshTokens: make(map[string]string),
		preAuth:       make(map[string]string),
		activeAccess:  make(map[string]string),
		calls:         make(map[string]int),
	}
	for _, opt := range opts {
		opt(s)
	}
	if len(s.signingKey) == 0 {
		s.signingKey = make([]byte, 32)
		_, _ = rand.Read(s.signingKey)
	}

	s.initRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Routes lists the registered "METHOD /path" patterns.
func (s *Server) Routes() []string {
	return append([]string(nil), s.routes...)
}

// AddUser registers an account. Role defaults to owner and a tenant ID is
// generated when none is given.
func (s *Server) AddUser(u users.User, password string, twoFactor bool) (*User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		return nil, err
	}
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	if u.Role == "" {
		u.Role = users.RoleOwner
	}
	if u.TenantID == "" {
		u.TenantID = uuid.NewString()
	}

	user := &User{User: u, PasswordHash: hash, TwoFactor: twoFactor}
	key := strings.ToLower(u.Email)
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.users[key]; exists {
		return nil, fmt.Errorf("%w: %s", ErrUserExists, u.Email)
	}
	s.users[key] = user
	return user, nil
}

// ExpireAccessTokens invalidates every access token issued so far. Refresh
// tokens stay valid.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.activeAccess = make(map[string]string)
}

// FailRefresh makes every refresh attempt answer 401 while set.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// Calls returns how many requests reached the route, keyed by "METHOD /path"
// as registered, for example "GET /v1/accounts".
func (s *Server) Calls(route string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls[route]
}

func (s *Server) Uploads() []Upload {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Upload(nil), s.uploads...)
}

func (s *Server) userByID(id string) *User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) handle(method, path string, handler http.HandlerFunc, mw ...func(http.HandlerFunc) http.HandlerFunc) {
	pattern := method + " " + path
	s.routes = append(s.routes, pattern)
	chain := append(s.apiMiddleware(pattern), mw...)
	s.router.HandleFunc(path, ChainMiddleware(handler, chain...)).Methods(method)
}
