// Command moodballoon runs webcam emotion detection and the balloon game.
package main

func main() {
	Execute()
}
