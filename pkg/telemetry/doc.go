// Package telemetry publishes console state over MQTT.
package telemetry

// The reporter mirrors the console onto a broker for dashboards and
// spectators: board snapshots, key events, challenge scores and link
// statistics as JSON, plus a retained meta document announcing the
// console identity. Telemetry is best-effort; publish failures never
// affect the game.
