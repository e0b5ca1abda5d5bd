// Package swarm spawns and paces simulated users.
//
// A Swarm starts Config.Users users at Config.SpawnRate users per second. Every user is created by
// a Factory, bootstrapped once and then runs its recurring task in a loop, waiting a uniformly
// distributed time in [Config.MinWait, Config.MaxWait] between two tasks. A user whose bootstrap
// fails is counted as failed and never runs a task.
//
// Run returns when every user has ended, which happens when the context is canceled or
// Config.RunTime has elapsed. Aggregate counters are available at any time through Stats and are
// logged periodically when Config.StatsInterval is set.
package swarm
