// pattern: Functional Core
package cli

// completionScript is the bash completion for gitloom. It is static:
// the command surface changes with releases, not at runtime.
const completionScript = `# bash completion for gitloom
# Install: source <(gitloom completion)
_gitloom() {
    local cur
    COMPREPLY=()
    cur="${COMP_WORDS[COMP_CWORD]}"

    if [[ ${COMP_CWORD} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "status projects completion version dashboard loom merge swarm" -- "${cur}") )
        return 0
    fi

    if [[ ${COMP_CWORD} -eq 2 ]]; then
        case "${COMP_WORDS[1]}" in
            loom)
                COMPREPLY=( $(compgen -W "create list remove show help" -- "${cur}") )
                ;;
            merge)
                COMPREPLY=( $(compgen -W "rebase merge help" -- "${cur}") )
                ;;
            swarm)
                COMPREPLY=( $(compgen -W "create copy-agents open help" -- "${cur}") )
                ;;
        esac
    fi
    return 0
}
complete -F _gitloom gitloom
`
