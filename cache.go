package main

// clearCaches drops everything derived from the palette or the map so the
// next frame rebuilds it.
func clearCaches() {
	terrain.reset()
	setHUD(nil)
}
