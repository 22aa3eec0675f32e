// Package hud renders observability state onto marked text surfaces.
//
// A Document holds Elements; each Element opts into updates by carrying
// one or more Markers. The Renderer replaces the text of every marked
// element on each state change. The Panel is the floating debug HUD: a
// closed/open state machine that adds its own marked sections to the
// Document the first time it is used.
package hud
