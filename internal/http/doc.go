// Package http provides HTTP handlers and middleware for the AcademiGold API.
//
// The router exposes the following endpoints. Every route except POST /sessions,
// GET /healthz and GET /metrics requires a session token, sent either as a
// Bearer Authorization header or as the `session_token` cookie.
//   - POST /sessions: issues a signed session token. Body: {"email","password"}.
//     Response: {"token","expires_at","user"}; the token is also surfaced via the
//     `X-Session-Token` header and the cookie.
//   - GET /sessions/current, DELETE /sessions/current: echoes the principal, or
//     clears the cookie.
//   - GET /spaces, POST /spaces, GET|PUT|DELETE /spaces/{id}, POST /spaces/{id}/status,
//     GET /spaces/{id}/availability?date=YYYY-MM-DD: the laboratory and classroom
//     catalog exchanging `spaceDTO`. Mutations require the admin role.
//   - GET /reservations, POST /reservations, POST /reservations/check,
//     GET /reservations/{id}, POST /reservations/{id}/complete,
//     POST /reservations/{id}/cancel: reservation lifecycle exchanging
//     `reservationDTO`. Conflicts answer 409 with a `conflict` object naming the
//     kind, the space and the overlapping hour slots.
//   - GET /software, POST /software, POST /software/{id}/approve,
//     POST /software/{id}/reject, DELETE /software/{id}: software installation
//     requests exchanging `softwareDTO`.
//   - GET /users, POST /users, GET|PUT|DELETE /users/{id}: account management.
//   - GET /statistics, GET /statistics/reservations?user_id=, GET /statistics/available:
//     dashboard projections.
//
// Error messages are returned in Brazilian Portuguese; validation errors carry
// per-field messages under `errors`.
package http
