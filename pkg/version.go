package dermavision

// Version is the current release of dermavision.
const Version = "0.1.0"
