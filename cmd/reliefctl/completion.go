package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
)

func handleCompletion(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("completion", flag.ContinueOnError)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() < 1 {
		return errors.New("usage: reliefctl completion [bash|zsh|fish]")
	}
	shell := fs.Arg(0)
	switch shell {
	case "bash":
		fmt.Fprint(stdout, bashCompletion)
	case "zsh":
		fmt.Fprint(stdout, zshCompletion)
	case "fish":
		fmt.Fprint(stdout, fishCompletion)
	default:
		return fmt.Errorf("unknown shell: %s", shell)
	}
	return nil
}

const bashCompletion = `# bash completion for reliefctl
_reliefctl_completions()
{
    local cur prev words cword
    _init_completion || return
    local cmds="tui regions predict upload sample history doctor config completion version help"
    if [[ ${cword} -eq 1 ]]; then
        COMPREPLY=( $(compgen -W "${cmds}" -- "$cur") )
        return
    fi
    case ${words[1]} in
        config)
            COMPREPLY=( $(compgen -W "validate print --config --log-level --json" -- "$cur") ) ;;
        upload)
            _filedir csv ;;
        sample)
            COMPREPLY=( $(compgen -W "--config --no-open" -- "$cur") ) ;;
        history)
            COMPREPLY=( $(compgen -W "--config --json --limit" -- "$cur") ) ;;
        doctor)
            COMPREPLY=( $(compgen -W "--config --verbose --timeout" -- "$cur") ) ;;
        tui|regions|predict)
            COMPREPLY=( $(compgen -W "--config --log-level --json" -- "$cur") ) ;;
        completion)
            COMPREPLY=( $(compgen -W "bash zsh fish" -- "$cur") ) ;;
        *) ;;
    esac
}
complete -F _reliefctl_completions reliefctl
`

const zshCompletion = `#compdef reliefctl
# zsh completion for reliefctl (basic)
_reliefctl() {
  local -a cmds
  cmds=(tui regions predict upload sample history doctor config completion version help)
  if (( CURRENT == 2 )); then
    _describe 'command' cmds
    return
  fi
  case $words[2] in
    config)
      _arguments '*:options:(--config --log-level --json validate print)'
      ;;
    upload)
      _files -g '*.csv'
      ;;
    sample)
      _arguments '*:options:(--config --no-open)'
      ;;
    history)
      _arguments '*:options:(--config --json --limit)'
      ;;
    doctor)
      _arguments '*:options:(--config --verbose --timeout)'
      ;;
    tui|regions|predict)
      _arguments '*:options:(--config --log-level --json)'
      ;;
    completion)
      _arguments '*:options:(bash zsh fish)'
      ;;
  esac
}
compdef _reliefctl reliefctl
`

const fishCompletion = `# fish completion for reliefctl
complete -c reliefctl -f -n "__fish_use_subcommand" -a "tui" -d "interactive session"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "regions" -d "list regions"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "predict" -d "predict needs"
complete -c reliefctl -n "__fish_use_subcommand" -a "upload" -d "upload events CSV"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "sample" -d "sample CSV link"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "history" -d "activity journal"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "doctor" -d "diagnostics"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "config" -d "config ops"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "version" -d "print version"
complete -c reliefctl -f -n "__fish_use_subcommand" -a "completion" -d "shell completions"
complete -c reliefctl -n "__fish_seen_subcommand_from sample" -l no-open -d "Only print the link"
complete -c reliefctl -n "__fish_seen_subcommand_from history" -l limit -d "Entries to show"

# Common flags
for cmd in tui regions predict upload sample history doctor config
  complete -c reliefctl -n "__fish_seen_subcommand_from $cmd" -l config -d "Path to config"
  complete -c reliefctl -n "__fish_seen_subcommand_from $cmd" -l log-level -d "Log level"
  complete -c reliefctl -n "__fish_seen_subcommand_from $cmd" -l json -d "JSON output"
end
`
