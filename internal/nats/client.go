package nats

import (
	"encoding/json"
	"fmt"
	"log"
	"time"

	"github.com/nats-io/nats.go"

	"fleet-service/internal/config"
)

// Event types
const (
	EventTripStarted        = "fleet.trip.started"
	EventTripCompleted      = "fleet.trip.completed"
	EventTripCancelled      = "fleet.trip.cancelled"
	EventInvitationIssued   = "fleet.invitation.issued"
	EventInvitationAccepted = "fleet.invitation.accepted"
	EventInspectionFiled    = "fleet.inspection.filed"
)

// TripEvent is published on trip lifecycle transitions
type TripEvent struct {
	EventType string    `json:"event_type"`
	CompanyID string    `json:"company_id"`
	TripID    string    `json:"trip_id"`
	Timestamp time.Time `json:"timestamp"`
}

// InvitationEvent is published when invitations are issued or accepted.
// It carries no token material.
type InvitationEvent struct {
	EventType string    `json:"event_type"`
	TenantID  string    `json:"tenant_id"`
	Role      string    `json:"role"`
	Timestamp time.Time `json:"timestamp"`
}

// InspectionEvent is published when an inspection is filed
type InspectionEvent struct {
	EventType string    `json:"event_type"`
	CompanyID string    `json:"company_id"`
	TripID    string    `json:"trip_id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
}

// Client wraps the NATS connection
type Client struct {
	conn *nats.Conn
	js   nats.JetStreamContext
}

// NewClient creates a new NATS client
func NewClient(cfg config.NATSConfig) (*Client, error) {
	log.Printf("[NATS] Connecting to %s", cfg.URL)

	opts := []nats.Option{
		nats.Name("fleet-service"),
		nats.RetryOnFailedConnect(true),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(2 * time.Second),
		nats.DisconnectErrHandler(func(nc *nats.Conn, err error) {
			log.Printf("[NATS] Disconnected: %v", err)
		}),
		nats.ReconnectHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Reconnected to %s", nc.ConnectedUrl())
		}),
		nats.ClosedHandler(func(nc *nats.Conn) {
			log.Printf("[NATS] Connection closed")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := conn.JetStream()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	// LimitsPolicy so multiple downstream consumers can read the stream.
	_, err = js.AddStream(&nats.StreamConfig{
		Name:        "FLEET_EVENTS",
		Description: "Stream for fleet lifecycle events",
		Subjects:    []string{"fleet.>"},
		Storage:     nats.FileStorage,
		Retention:   nats.LimitsPolicy,
		MaxAge:      24 * time.Hour * 7,
		MaxMsgs:     100000,
		Discard:     nats.DiscardOld,
	})
	if err != nil && err != nats.ErrStreamNameAlreadyInUse {
		log.Printf("[NATS] Warning: Could not create stream (may already exist): %v", err)
	}

	log.Printf("[NATS] Connected successfully to %s", cfg.URL)
	return &Client{conn: conn, js: js}, nil
}

// Close closes the NATS connection
func (c *Client) Close() {
	if c != nil && c.conn != nil {
		c.conn.Close()
	}
}

// publish marshals and publishes an event, best-effort. Event delivery
// never gates the request that produced it.
func (c *Client) publish(subject string, event interface{}) {
	if c == nil || c.js == nil {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		log.Printf("[NATS] Failed to marshal %s event: %v", subject, err)
		return
	}
	if _, err := c.js.Publish(subject, data); err != nil {
		log.Printf("[NATS] Failed to publish %s event: %v", subject, err)
	}
}

// PublishTripStarted publishes a trip started event
func (c *Client) PublishTripStarted(companyID, tripID string) {
	c.publish(EventTripStarted, &TripEvent{
		EventType: EventTripStarted,
		CompanyID: companyID,
		TripID:    tripID,
		Timestamp: time.Now().UTC(),
	})
}

// PublishTripCompleted publishes a trip completed event
func (c *Client) PublishTripCompleted(companyID, tripID string) {
	c.publish(EventTripCompleted, &TripEvent{
		EventType: EventTripCompleted,
		CompanyID: companyID,
		TripID:    tripID,
		Timestamp: time.Now().UTC(),
	})
}

// PublishTripCancelled publishes a trip cancelled event
func (c *Client) PublishTripCancelled(companyID, tripID string) {
	c.publish(EventTripCancelled, &TripEvent{
		EventType: EventTripCancelled,
		CompanyID: companyID,
		TripID:    tripID,
		Timestamp: time.Now().UTC(),
	})
}

// PublishInvitationIssued publishes an invitation issued event
func (c *Client) PublishInvitationIssued(tenantID, role string) {
	c.publish(EventInvitationIssued, &InvitationEvent{
		EventType: EventInvitationIssued,
		TenantID:  tenantID,
		Role:      role,
		Timestamp: time.Now().UTC(),
	})
}

// PublishInvitationAccepted publishes an invitation accepted event
func (c *Client) PublishInvitationAccepted(tenantID, role string) {
	c.publish(EventInvitationAccepted, &InvitationEvent{
		EventType: EventInvitationAccepted,
		TenantID:  tenantID,
		Role:      role,
		Timestamp: time.Now().UTC(),
	})
}

// PublishInspectionFiled publishes an inspection filed event
func (c *Client) PublishInspectionFiled(companyID, tripID, inspectionType string) {
	c.publish(EventInspectionFiled, &InspectionEvent{
		EventType: EventInspectionFiled,
		CompanyID: companyID,
		TripID:    tripID,
		Type:      inspectionType,
		Timestamp: time.Now().UTC(),
	})
}
