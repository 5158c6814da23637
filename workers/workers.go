package workers

// flipped by the HTTP worker on SIGINT/SIGTERM, polled by the loop workers
var WorkerShutdown = false
