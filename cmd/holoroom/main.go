// Command holoroom tracks hands, body pose and face mesh from a camera and
// draws the skeletons over the picture or into a virtual room.
package main

func main() {
	Execute()
}
