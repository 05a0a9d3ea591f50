package main

// General API documentation for swaggo (served by "mtexp serve" when built
// with -tags=swagger).
//
// @title           mtexp run browser
// @version         1.0
// @description     Read-only HTTP view of multitask classifier training runs.
//
// @BasePath  /
//
// @schemes http
