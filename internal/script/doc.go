// Package script runs Lua scripts that subscribe to and publish hub topics.
//
// Scripts load the "evented" module:
//
//	local ev = require("evented")
//
//	local h = ev.subscribe("fs/write", function(e)
//	  ev.log("changed " .. e.data.path)
//	  ev.publish("script/seen", { path = e.data.path })
//	end)
//
//	h:pause()
//	h:resume()
//	h:cancel()
//
// The Lua state is not goroutine-safe. Scripts, and every publish that can
// reach a script listener, must run on one goroutine.
package script
