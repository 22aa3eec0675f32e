package ir

// RuntimeVersion is the cprum runtime version.
const RuntimeVersion = "0.1.0"
