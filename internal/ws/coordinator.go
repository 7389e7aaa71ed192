package ws

import (
	"context"
	"encoding/json"
	"ridehailgo/internal/observability"
	"ridehailgo/internal/services/identity"
	"ridehailgo/internal/services/trip"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// Coordinator owns the orchestration between the trip store, the identity
// service and the broadcast hub. All side effects on shared state flow
// through here; the role handlers below only decode and delegate.
type Coordinator struct {
	hub         *Hub
	tripSvc     trip.ITripService
	identitySvc identity.IIdentityService
}

func NewCoordinator(hub *Hub, tripSvc trip.ITripService, identitySvc identity.IIdentityService) *Coordinator {
	return &Coordinator{
		hub:         hub,
		tripSvc:     tripSvc,
		identitySvc: identitySvc,
	}
}

// Accept subscribes a freshly connected session to the groups implied by its
// role and its existing non-completed trips. Anonymous sessions get no
// subscriptions but stay connected.
func (co *Coordinator) Accept(ctx context.Context, sess *session) error {
	if sess.user != nil {
		trips, err := co.tripSvc.TripsForUser(ctx, sess.user.ID, string(sess.role))
		if err != nil {
			return err
		}
		for _, t := range trips {
			sess.subscribe(co.hub, t.NK)
		}
	}
	if sess.role == RoleDriver {
		sess.subscribe(co.hub, DriversGroup)
	}
	return nil
}

// CreateTrip handles a rider's trip request: persist, self-subscribe, then
// publish to the trip's own group and alert the drivers group.
func (co *Coordinator) CreateTrip(ctx context.Context, sess *session, msg CreateTripMessage) error {
	if err := validate.Struct(msg); err != nil {
		return err
	}

	// The rider reference is taken from the message payload as received.
	rider, err := co.identitySvc.LookupUser(ctx, msg.Rider.ID, msg.Rider.Username)
	if err != nil {
		return err
	}

	dto, err := co.tripSvc.CreateTrip(ctx, msg.PickUpAddress, msg.DropOffAddress, rider.ID)
	if err != nil {
		return err
	}

	sess.subscribe(co.hub, dto.NK)

	payload, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	co.hub.Broadcast(dto.NK, payload)
	co.hub.Broadcast(DriversGroup, payload)
	observability.TripsCreatedTotal.Inc()
	return nil
}

// UpdateTrip handles a driver's mutation of an existing trip. The driver
// self-subscribes so later events for this trip keep reaching it.
func (co *Coordinator) UpdateTrip(ctx context.Context, sess *session, msg UpdateTripMessage) error {
	if err := validate.Struct(msg); err != nil {
		return err
	}

	params := trip.UpdateTripParams{
		PickUpAddress:  msg.PickUpAddress,
		DropOffAddress: msg.DropOffAddress,
		Status:         msg.Status,
	}
	if msg.Driver != nil {
		driver, err := co.identitySvc.LookupUser(ctx, msg.Driver.ID, msg.Driver.Username)
		if err != nil {
			return err
		}
		params.DriverID = &driver.ID
	}

	dto, err := co.tripSvc.UpdateTrip(ctx, msg.NK, params)
	if err != nil {
		return err
	}

	sess.subscribe(co.hub, dto.NK)

	payload, err := json.Marshal(dto)
	if err != nil {
		return err
	}
	co.hub.Broadcast(dto.NK, payload)
	return nil
}

// Disconnect unwinds every registry membership the session holds. Idempotent.
func (co *Coordinator) Disconnect(sess *session) {
	sess.teardown(co.hub)
}

// ─────────────────────────── role-bound handlers ─────────────────────────────

// connHandler is the per-connection contract shared by both roles. The two
// implementations compose the Coordinator rather than extending a base type.
type connHandler interface {
	onConnect(ctx context.Context, sess *session) error
	onMessage(ctx context.Context, sess *session, data []byte) error
	onDisconnect(sess *session)
}

type riderHandler struct {
	co *Coordinator
}

func (h riderHandler) onConnect(ctx context.Context, sess *session) error {
	return h.co.Accept(ctx, sess)
}

func (h riderHandler) onMessage(ctx context.Context, sess *session, data []byte) error {
	var msg CreateTripMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	return h.co.CreateTrip(ctx, sess, msg)
}

func (h riderHandler) onDisconnect(sess *session) {
	h.co.Disconnect(sess)
}

type driverHandler struct {
	co *Coordinator
}

func (h driverHandler) onConnect(ctx context.Context, sess *session) error {
	return h.co.Accept(ctx, sess)
}

func (h driverHandler) onMessage(ctx context.Context, sess *session, data []byte) error {
	var msg UpdateTripMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return err
	}
	return h.co.UpdateTrip(ctx, sess, msg)
}

func (h driverHandler) onDisconnect(sess *session) {
	h.co.Disconnect(sess)
}
