package routes

import (
	"net/http"

	"github.com/accordsai/eventledger/pkg/gateway"
)

// Arg says where one positional transaction argument comes from.
type Arg struct {
	Param string
	Field string
}

func Path(name string) Arg  { return Arg{Param: name} }
func Body(field string) Arg { return Arg{Field: field} }

// Route maps one HTTP endpoint to one ledger transaction.
type Route struct {
	Method      string
	Pattern     string
	Transaction string
	Args        []Arg
	Kind        gateway.CallKind
	Shape       gateway.Shape
}

func (rt Route) readsBody() bool {
	for _, a := range rt.Args {
		if a.Field != "" {
			return true
		}
	}
	return false
}

var Table = []Route{
	{http.MethodPost, "/events", "CreateEvent", []Arg{Body("id"), Body("name"), Body("date"), Body("location")}, gateway.Submit, gateway.Acknowledge},
	{http.MethodGet, "/events/{id}", "ReadEvent", []Arg{Path("id")}, gateway.Evaluate, gateway.Record},
	{http.MethodGet, "/allevents", "GetAvailableEvents", nil, gateway.Evaluate, gateway.List},
	{http.MethodPut, "/events/{id}", "UpdateEvent", []Arg{Path("id"), Body("name"), Body("date"), Body("location")}, gateway.Submit, gateway.Acknowledge},
	{http.MethodDelete, "/events/{id}", "DeleteEvent", []Arg{Path("id")}, gateway.Submit, gateway.Passthrough},

	{http.MethodPost, "/tickets", "CreateTicket", []Arg{Body("eventId"), Body("eventName"), Body("count"), Body("holder"), Body("status")}, gateway.Submit, gateway.Acknowledge},
	{http.MethodGet, "/tickets/{id}", "ReadTicket", []Arg{Path("id")}, gateway.Evaluate, gateway.Record},
	{http.MethodPut, "/tickets/{id}", "UpdateTicketStatus", []Arg{Path("id"), Body("status")}, gateway.Submit, gateway.Acknowledge},
	{http.MethodDelete, "/tickets/{id}", "DeleteTicket", []Arg{Path("id")}, gateway.Submit, gateway.Passthrough},
}
