// Package handler implements the HTTP handlers for the Tripweaver API.
// All handlers are methods on Server. Methods are split into domain-specific
// files (health.go, trip.go, comment.go, version.go) but all share the same
// Server struct so they can access its dependencies.
package handler

import (
	"context"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/pkordes/tripweaver/backend/internal/domain"
	"github.com/pkordes/tripweaver/backend/internal/middleware"
	"github.com/pkordes/tripweaver/backend/internal/service"
)

// TripServicer defines the business operations the trip handlers depend on.
// Defining the interface here (in the consumer package) follows the Go
// convention: "accept interfaces, return concrete types". It lets handler
// tests inject a mock without touching the database or service layer.
type TripServicer interface {
	Create(ctx context.Context, trip domain.Trip) (domain.Trip, error)
	GetByID(ctx context.Context, id uuid.UUID) (domain.Trip, error)
	ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]domain.Trip, error)
}

// CommentServicer defines the operations the comment handlers depend on.
type CommentServicer interface {
	Create(ctx context.Context, c domain.Comment) (domain.Comment, error)
	ListByTrip(ctx context.Context, tripID uuid.UUID, status *domain.CommentStatus, p domain.PaginationParams) ([]domain.Comment, int64, error)
	UpdateContent(ctx context.Context, tripID, commentID, actorID uuid.UUID, content string) (domain.Comment, error)
	Resolve(ctx context.Context, tripID, commentID, actorID uuid.UUID) (domain.Comment, error)
	Delete(ctx context.Context, tripID, commentID, actorID uuid.UUID) error
	Conflicts(ctx context.Context, tripID uuid.UUID) ([]domain.ConflictPair, error)
	PreviewClassify(in service.ClassifyInput) (domain.CommentIntent, error)
}

// VersionServicer defines the operations the version handlers depend on.
type VersionServicer interface {
	CherryPick(ctx context.Context, tripID uuid.UUID, selections map[int]int, actorID uuid.UUID) (domain.ItineraryVersion, error)
	Restore(ctx context.Context, tripID uuid.UUID, sourceVersion int, actorID uuid.UUID) (domain.ItineraryVersion, error)
	List(ctx context.Context, tripID uuid.UUID) ([]domain.ItineraryVersion, error)
	Get(ctx context.Context, tripID uuid.UUID, version int) (domain.ItineraryVersion, error)
}

// GenerationServicer defines the operations the generation handlers depend on.
type GenerationServicer interface {
	Generate(ctx context.Context, tripID, actorID uuid.UUID) (domain.ItineraryVersion, error)
	Regenerate(ctx context.Context, tripID, actorID uuid.UUID) (domain.ItineraryVersion, error)
}

// Server holds the service dependencies for all API endpoints.
type Server struct {
	trips      TripServicer
	comments   CommentServicer
	versions   VersionServicer
	generation GenerationServicer
}

// NewServer constructs the Server with all its dependencies.
func NewServer(trips TripServicer, comments CommentServicer, versions VersionServicer, generation GenerationServicer) *Server {
	return &Server{trips: trips, comments: comments, versions: versions, generation: generation}
}

// Routes registers every endpoint on the router. The /trips subtree requires
// an actor identity; /healthz and /classify are open.
func (s *Server) Routes(r chi.Router) {
	r.Get("/healthz", s.GetHealth)
	r.Post("/classify", s.PreviewClassify)

	r.Route("/trips", func(r chi.Router) {
		r.Use(middleware.NewActorID())

		r.Post("/", s.CreateTrip)
		r.Get("/", s.ListTrips)

		r.Route("/{tripID}", func(r chi.Router) {
			r.Get("/", s.GetTrip)
			r.Post("/generate", s.GenerateItinerary)
			r.Post("/regenerate", s.RegenerateItinerary)
			r.Get("/conflicts", s.ListConflicts)

			r.Route("/versions", func(r chi.Router) {
				r.Get("/", s.ListVersions)
				r.Post("/", s.CreateVersion)
				r.Get("/{version}", s.GetVersion)
			})

			r.Route("/comments", func(r chi.Router) {
				r.Post("/", s.CreateComment)
				r.Get("/", s.ListComments)
				r.Patch("/{commentID}", s.UpdateComment)
				r.Delete("/{commentID}", s.DeleteComment)
			})
		})
	})
}
